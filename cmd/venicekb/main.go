// Command venicekb builds and maintains a documentation knowledge base by
// fetching, merging and deduplicating content from a repository, an
// OpenAPI spec, navigation/URL-list manifests, rendered pages and a
// live model-listing endpoint, then diffing each build against the
// last one.
package main

import "github.com/ternarybob/venicekb/internal/common"

func main() {
	defer common.Stop()
	Execute()
}
