package domain

// Gallery is a position within a brand's images. Navigation wraps around in
// both directions.
type Gallery struct {
	Images []Image
	Index  int
}

// NewGallery normalises index into range, so -1 is the last image.
func NewGallery(images []Image, index int) Gallery {
	return Gallery{Images: images, Index: wrap(index, len(images))}
}

// Len is the number of images.
func (g Gallery) Len() int { return len(g.Images) }

// Current returns the selected image, false when the gallery is empty.
func (g Gallery) Current() (Image, bool) {
	if len(g.Images) == 0 {
		return Image{}, false
	}
	return g.Images[g.Index], true
}

// Next is the index after the current one, wrapping to 0.
func (g Gallery) Next() int { return wrap(g.Index+1, len(g.Images)) }

// Prev is the index before the current one, wrapping to the last image.
func (g Gallery) Prev() int { return wrap(g.Index-1, len(g.Images)) }

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
