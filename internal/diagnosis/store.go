package diagnosis

import (
	"context"
	"database/sql"
	"time"

	"diagnosis-api/internal/common/errors"
	"diagnosis-api/internal/common/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store persists diagnosis rows to Postgres. Constructed once at startup and
// injected into the handlers; a nil *Store means persistence is not
// configured and inserts are skipped. Insert-only: there is no update or
// delete path, and no deduplication of concurrent identical submissions.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "diagnosis-store"}),
	}
}

// Insert writes one shaped row. The id and created_at are assigned here.
func (s *Store) Insert(ctx context.Context, row Row) error {
	id := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diagnoses (
			id, created_at, company_name, contact_name, backoffice_people,
			hourly_cost, it_tools, it_literacy, team_cooperation, budget_level,
			task1_name, task1_freq, task1_time, trouble_text,
			bottleneck_task, monthly_saved_cost, lead_rank, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		id,
		createdAt,
		row.CompanyName,
		row.ContactName,
		row.BackofficePeople,
		row.HourlyCost,
		pq.Array(row.ITTools),
		row.ITLiteracy,
		row.TeamCooperation,
		row.BudgetLevel,
		row.Task1Name,
		row.Task1Freq,
		row.Task1Time,
		row.TroubleText,
		row.BottleneckTask,
		row.MonthlySavedCost,
		row.LeadRank,
		row.Source,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("diagnosis row inserted", map[string]interface{}{
		"id":     id,
		"source": row.Source,
	})
	return nil
}
