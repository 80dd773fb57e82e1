package store

import (
	"context"

	"sjsage522/foreclosureworker/internal/crawler"
	"sjsage522/foreclosureworker/logger"
	apperrors "sjsage522/foreclosureworker/pkg/errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store persists cases and defendant records and supplies the reference towns
type Store struct {
	DB        *gorm.DB
	BatchSize int
}

// Open connects to Postgres at dsn
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.NewStore("failed to connect", err)
	}
	return New(db, 0), nil
}

// New wraps an open gorm connection
func New(db *gorm.DB, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = 100 // Default
	}
	return &Store{
		DB:        db,
		BatchSize: batchSize,
	}
}

// ListTowns returns the reference town names from ct_towns
func (s *Store) ListTowns(ctx context.Context) ([]string, error) {
	var towns []string
	err := s.DB.WithContext(ctx).
		Model(&Town{}).
		Order("town").
		Pluck("town", &towns).Error
	if err != nil {
		return nil, apperrors.NewStore("failed to list towns", err)
	}
	return towns, nil
}

// UpsertCases inserts cases or refreshes existing ones by docket number
func (s *Store) UpsertCases(ctx context.Context, cases []crawler.ScrapedCase) error {
	return s.upsertCases(s.DB.WithContext(ctx), cases)
}

// UpsertDefendants inserts defendant records or refreshes existing ones by
// (docket number, slot)
func (s *Store) UpsertDefendants(ctx context.Context, records []crawler.RawDefendantRecord) error {
	return s.upsertDefendants(s.DB.WithContext(ctx), records)
}

// SaveResult upserts a town's cases and then its defendants in one transaction
func (s *Store) SaveResult(ctx context.Context, cases []crawler.ScrapedCase, records []crawler.RawDefendantRecord) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.upsertCases(tx, cases); err != nil {
			return err
		}
		return s.upsertDefendants(tx, records)
	})
	if err != nil {
		return err
	}
	logger.ForStore().Debug().Int("cases", len(cases)).Int("defendants", len(records)).Msg("saved town result")
	return nil
}

func (s *Store) upsertCases(db *gorm.DB, cases []crawler.ScrapedCase) error {
	rows := caseRows(cases)
	if len(rows) == 0 {
		return nil
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "docket_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"case_name", "docket_url", "town", "updated_at"}),
	}).CreateInBatches(rows, s.BatchSize).Error
	if err != nil {
		return apperrors.NewStore("failed to upsert cases", err)
	}
	return nil
}

func (s *Store) upsertDefendants(db *gorm.DB, records []crawler.RawDefendantRecord) error {
	rows := defendantRows(records)
	if len(rows) == 0 {
		return nil
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "docket_number"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "address", "town", "state", "zip",
			"d_01", "d_02", "d_03", "d_04", "d_05", "updated_at",
		}),
	}).CreateInBatches(rows, s.BatchSize).Error
	if err != nil {
		return apperrors.NewStore("failed to upsert defendants", err)
	}
	return nil
}

// caseRows converts cases to rows, keeping the last row per docket number so
// one statement never updates the same key twice.
func caseRows(cases []crawler.ScrapedCase) []Case {
	index := make(map[string]int, len(cases))
	rows := make([]Case, 0, len(cases))
	for _, c := range cases {
		if c.DocketNumber == "" {
			continue
		}
		row := Case{
			DocketNumber: c.DocketNumber,
			CaseName:     c.CaseName,
			DocketURL:    c.DocketURL,
			Town:         c.Town,
		}
		if i, ok := index[c.DocketNumber]; ok {
			rows[i] = row
			continue
		}
		index[c.DocketNumber] = len(rows)
		rows = append(rows, row)
	}
	return rows
}

func defendantRows(records []crawler.RawDefendantRecord) []Defendant {
	type key struct{ docket, slot string }
	index := make(map[key]int, len(records))
	rows := make([]Defendant, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.DocketNumber == "" {
			continue
		}
		row := Defendant{
			DocketNumber: r.DocketNumber,
			Slot:         r.SlotKey(),
			Name:         r.Name,
			Address:      r.Address,
			Town:         r.Town,
			State:        r.State,
			Zip:          r.Zip,
			D01:          r.D01,
			D02:          r.D02,
			D03:          r.D03,
			D04:          r.D04,
			D05:          r.D05,
		}
		k := key{row.DocketNumber, row.Slot}
		if j, ok := index[k]; ok {
			rows[j] = row
			continue
		}
		index[k] = len(rows)
		rows = append(rows, row)
	}
	return rows
}
