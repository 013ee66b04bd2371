package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CatalogExamKey returns the cache key for a catalog exam definition
func (r *CacheKeyStruct) CatalogExamKey(examID string) string {
	return fmt.Sprintf("exam:%s:catalog", examID)
}

// CatalogIndexKey returns the cache key for the set of cached catalog exam ids
func (r *CacheKeyStruct) CatalogIndexKey() string {
	return "exam:catalog:index"
}

var CacheKey = NewCacheKeyStruct()
