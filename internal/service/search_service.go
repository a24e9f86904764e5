package service

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"anoa.com/reportdesk/internal/model"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

type SearchService interface {
	IndexReport(report *model.Report) error
	SearchReports(query string) ([]uuid.UUID, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *searchService) initIndexes() {
	sortableAttrs := []string{"created_at"}
	if _, err := s.client.Index("reports").UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("Failed to update reports sortable attributes: %v", err)
	}

	filterable := []string{"status", "user_id"}
	filterableInterface := make([]any, len(filterable))
	for i, v := range filterable {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index("reports").UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update reports filterable attributes: %v", err)
	}
}

type meiliReportDoc struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
}

func (s *searchService) cleanContentForIndex(content string) string {
	// Replace block tags with spaces to prevent text merging
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)

	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexReport(report *model.Report) error {
	doc := meiliReportDoc{
		ID:        report.ID.String(),
		Title:     report.Title,
		Content:   s.cleanContentForIndex(report.Content),
		Status:    report.Status,
		CreatedAt: report.CreatedAt.Unix(),
	}
	if report.UserID != nil {
		doc.UserID = report.UserID.String()
	}

	_, err := s.client.Index("reports").AddDocuments([]meiliReportDoc{doc}, strPtr("id"))
	return err
}

func (s *searchService) SearchReports(query string) ([]uuid.UUID, error) {
	raw, err := s.client.Index("reports").SearchRaw(query, &meilisearch.SearchRequest{
		Limit: 50,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search reports: %w", err)
	}

	var parsed struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits))
	for _, hit := range parsed.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
