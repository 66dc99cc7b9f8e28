package elasticsearch

// DefaultIndexName is the index used for catalog documents.
const DefaultIndexName = "collection_products"

// buildIndexMapping returns the JSON mapping for the catalog index. Text
// fields carry an english-analyzed body for full-text matching, a
// lowercase keyword for substring and exact matching, and a trigram
// subfield that stands in for pg_trgm similarity. Keywords are neither
// truncated nor accent-folded so wildcard matches see the whole value,
// as lower(...) LIKE does in postgres.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "normalizer": {
        "lowercase_normalizer": {
          "type": "custom",
          "filter": ["lowercase"]
        }
      },
      "analyzer": {
        "trigram_analyzer": {
          "type": "custom",
          "tokenizer": "trigram_tokenizer",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "trigram_tokenizer": {
          "type": "ngram",
          "min_gram": 3,
          "max_gram": 3,
          "token_chars": ["letter", "digit"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "name":        { "type": "text", "analyzer": "english", "fields": { "keyword": { "type": "keyword", "normalizer": "lowercase_normalizer" }, "trigram": { "type": "text", "analyzer": "trigram_analyzer" } } },
      "description": { "type": "text", "analyzer": "english", "fields": { "keyword": { "type": "keyword", "normalizer": "lowercase_normalizer" }, "trigram": { "type": "text", "analyzer": "trigram_analyzer" } } },
      "brand_id":    { "type": "keyword" },
      "brand_name":  { "type": "text", "analyzer": "english", "fields": { "keyword": { "type": "keyword", "normalizer": "lowercase_normalizer" }, "raw": { "type": "keyword" }, "trigram": { "type": "text", "analyzer": "trigram_analyzer" } } },
      "types":       { "type": "keyword", "normalizer": "lowercase_normalizer", "fields": { "raw": { "type": "keyword" } } },
      "price":       { "type": "scaled_float", "scaling_factor": 100 },
      "price_text":  { "type": "keyword", "index": false },
      "stock":       { "type": "integer" },
      "status":      { "type": "keyword" },
      "image_url":   { "type": "keyword", "index": false },
      "has_signal":  { "type": "boolean" },
      "is_new":      { "type": "boolean" },
      "new_score":   { "type": "double" },
      "is_hot":      { "type": "boolean" },
      "hot_score":   { "type": "double" },
      "rank_score":  { "type": "double" },
      "created_at":  { "type": "date" },
      "updated_at":  { "type": "date" }
    }
  }
}`
}
