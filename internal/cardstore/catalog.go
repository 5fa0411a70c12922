package cardstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/example/psychstudy/pkg/models"
)

// catalogTimeout bounds a catalog fetch over HTTP
const catalogTimeout = 30 * time.Second

// LoadCatalog loads the card catalog from a JSON file path or an http(s) URL.
// Any failure is logged and yields an empty catalog.
func LoadCatalog(ctx context.Context, source string) []models.Card {
	data, err := readSource(ctx, source)
	if err != nil {
		log.Printf("Failed to load flashcards from %s: %v", source, err)
		return []models.Card{}
	}

	cards, err := ParseCatalog(data)
	if err != nil {
		log.Printf("Failed to parse flashcards from %s: %v", source, err)
		return []models.Card{}
	}

	log.Printf("Loaded %d flashcards from %s", len(cards), source)
	return cards
}

// ParseCatalog decodes a JSON array of cards and assigns card-<index> IDs to
// entries without one
func ParseCatalog(data []byte) ([]models.Card, error) {
	var cards []models.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if cards == nil {
		cards = []models.Card{}
	}
	for i := range cards {
		if cards[i].ID == "" {
			cards[i].ID = models.CardIDForIndex(i)
		}
	}
	return cards, nil
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
