package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
	"github.com/noah-isme/vaccination-api/pkg/export"
)

type historyReader interface {
	ListByChild(ctx context.Context, childID string) ([]models.VaccinationHistoryEntry, error)
	ListByTutorUser(ctx context.Context, userID string) ([]models.VaccinationHistoryEntry, error)
}

var cardHeaders = []string{"Vaccine", "Dose", "Administered", "Age", "Lot", "Personnel", "Notes"}

// Document is a rendered attachment.
type Document struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// CardService renders a child's vaccination card.
type CardService struct {
	children childGate
	history  historyReader
	logger   *zap.Logger
}

// NewCardService builds the service.
func NewCardService(children childGate, history historyReader, logger *zap.Logger) *CardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardService{children: children, history: history, logger: logger}
}

// Render exports the administered doses of a child in the requested format.
func (s *CardService) Render(ctx context.Context, childID, format string, actor *models.Claims) (*Document, error) {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}
	child, err := s.children.Authorize(ctx, childID, actor)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListByChild(ctx, child.ID)
	if err != nil {
		return nil, internal(err, "failed to load vaccination history")
	}

	renderer, err := export.NewRenderer(parsed)
	if err != nil {
		return nil, internal(err, "failed to build renderer")
	}
	payload, err := renderer.Render(cardDataset(child, entries))
	if err != nil {
		return nil, internal(err, "failed to render vaccination card")
	}

	s.logger.Debug("vaccination card rendered", zap.String("child_id", child.ID), zap.String("format", string(parsed)), zap.Int("doses", len(entries)))
	return &Document{
		Filename:    fmt.Sprintf("vaccination-card-%s.%s", child.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

func cardDataset(child *models.Child, entries []models.VaccinationHistoryEntry) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Vaccine":      e.VaccineName,
			"Dose":         e.DoseLabel,
			"Administered": e.AdministeredAt.UTC().Format(dateLayout),
			"Age":          e.AgeAtAdministration,
			"Lot":          e.LotNumber,
			"Personnel":    e.PersonnelName,
			"Notes":        e.Notes,
		})
	}
	return export.Dataset{
		Title: "Vaccination card",
		Preamble: []string{
			"Child: " + child.FullName(),
			"Birth date: " + child.BirthDate.UTC().Format(dateLayout),
			"Doses recorded: " + strconv.Itoa(len(entries)),
		},
		Headers: cardHeaders,
		Rows:    rows,
	}
}
