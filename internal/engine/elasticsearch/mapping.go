package elasticsearch

// DefaultIndexName is the index used for brand documents when none is configured.
const DefaultIndexName = "sustainable_brands"

// buildIndexMapping returns the mapping for the brands index. Name and
// description use the wildcard field type so substring queries match across
// the full value. The brand itself is stored unindexed and returned as-is.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "slug":        { "type": "keyword" },
      "position":    { "type": "integer" },
      "categories":  { "type": "keyword" },
      "name":        { "type": "wildcard" },
      "description": { "type": "wildcard" },
      "brand":       { "type": "object", "enabled": false }
    }
  }
}`
}
