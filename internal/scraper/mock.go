package scraper

import (
	_ "embed"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

// Canned company profiles for demo-known inputs, keyed by normalized
// name. Served instead of live scraping so demos stay deterministic.
//
//go:embed mock_companies.json
var mockCompaniesJSON []byte

func loadMockCompanies() map[string]models.ScrapeSummary {
	data := map[string]models.ScrapeSummary{}
	if err := json.Unmarshal(mockCompaniesJSON, &data); err != nil {
		logger.Warn("Failed to load canned company profiles", zap.Error(err))
		return map[string]models.ScrapeSummary{}
	}
	return data
}
