// Package reassign mutates the product-to-photo mapping while the user
// corrects the automatic grouping. Every operation keeps ImageURLs and
// ThumbnailURLs the same length and parallel-indexed.
package reassign

import (
	"log/slog"

	"github.com/gearloft/bulklister/internal/models"
)

// MovePhoto removes photoURL (and its parallel thumbnail) from the product
// at fromIndex and appends both to the product at toIndex. It is a no-op
// when source and target are the same, either index is out of range, or
// the photo is not in the source product.
func MovePhoto(products []*models.Product, photoURL string, fromIndex, toIndex int) {
	if fromIndex == toIndex {
		return
	}
	if fromIndex < 0 || fromIndex >= len(products) || toIndex < 0 || toIndex >= len(products) {
		slog.Warn("Ignoring photo move with out-of-range product index", "from", fromIndex, "to", toIndex)
		return
	}

	src := products[fromIndex]
	pos := indexOf(src.ImageURLs, photoURL)
	if pos == -1 {
		slog.Warn("Photo not found in source product", "photo", photoURL, "from", fromIndex)
		return
	}

	thumb := src.ThumbnailURLs[pos]
	src.ImageURLs = append(src.ImageURLs[:pos], src.ImageURLs[pos+1:]...)
	src.ThumbnailURLs = append(src.ThumbnailURLs[:pos], src.ThumbnailURLs[pos+1:]...)

	dst := products[toIndex]
	dst.ImageURLs = append(dst.ImageURLs, photoURL)
	dst.ThumbnailURLs = append(dst.ThumbnailURLs, thumb)
}

// CreateFromPhoto removes photoURL from the product at fromIndex and
// returns the product list with a new product appended, seeded with that
// single photo and an empty form. Returns the list unchanged if the photo
// cannot be taken from the source.
func CreateFromPhoto(products []*models.Product, photoURL string, fromIndex int, groupID string) []*models.Product {
	if fromIndex < 0 || fromIndex >= len(products) {
		slog.Warn("Ignoring split with out-of-range product index", "from", fromIndex)
		return products
	}

	src := products[fromIndex]
	pos := indexOf(src.ImageURLs, photoURL)
	if pos == -1 {
		slog.Warn("Photo not found in source product", "photo", photoURL, "from", fromIndex)
		return products
	}

	thumb := src.ThumbnailURLs[pos]
	src.ImageURLs = append(src.ImageURLs[:pos], src.ImageURLs[pos+1:]...)
	src.ThumbnailURLs = append(src.ThumbnailURLs[:pos], src.ThumbnailURLs[pos+1:]...)

	return append(products, &models.Product{
		GroupID:       groupID,
		ImageURLs:     []string{photoURL},
		ThumbnailURLs: []string{thumb},
	})
}

// PruneEmpty drops products left with no images. Run before leaving the
// assignment stage so orphaned products never reach review.
func PruneEmpty(products []*models.Product) []*models.Product {
	kept := products[:0]
	for _, p := range products {
		if len(p.ImageURLs) > 0 {
			kept = append(kept, p)
		} else {
			slog.Info("Pruning product with no images", "group_id", p.GroupID)
		}
	}
	return kept
}

// TotalPhotos counts photos across all products. Move and split operations
// conserve this total.
func TotalPhotos(products []*models.Product) int {
	total := 0
	for _, p := range products {
		total += len(p.ImageURLs)
	}
	return total
}

func indexOf(urls []string, url string) int {
	for i, u := range urls {
		if u == url {
			return i
		}
	}
	return -1
}
