package packagerepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/lifecycle"
	"gotestcase/internal/pkg/database"
	"gotestcase/internal/pkg/logger"
)

// PackageRepository persiste pacotes de teste e seus passos.
type PackageRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPackageRepository cria o repositório.
func NewPackageRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PackageRepository {
	return &PackageRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// Save insere um pacote novo em CREATED com versão 1.
func (r *PackageRepository) Save(ctx context.Context, pkg domain.TestPackage) (domain.TestPackage, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	pkg.ID = uuid.NewString()
	pkg.Status = domain.PackageCreated
	pkg.Version = 1
	pkg.CreatedAt = time.Now().UTC()
	pkg.UpdatedAt = pkg.CreatedAt

	_, err := r.DB.ExecContext(ctxTimeout, `
        INSERT INTO test_packages (id, project_id, title, description, status, release, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pkg.ID, pkg.ProjectID, pkg.Title, pkg.Description, string(pkg.Status), pkg.Release,
		pkg.Version, pkg.CreatedAt, pkg.UpdatedAt,
	)
	if database.IsForeignKeyViolation(err) {
		return domain.TestPackage{}, apperror.NewNotFoundError("Projeto não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao inserir pacote no DB.", err)
		return domain.TestPackage{}, apperror.NewDBError("Falha ao inserir pacote", err)
	}

	r.logger.Info("Pacote criado.", map[string]interface{}{"package_id": pkg.ID, "project_id": pkg.ProjectID})
	pkg.Steps = []domain.Step{}
	pkg.Scenarios = []domain.TestScenario{}
	return pkg, nil
}

// FindPackage carrega o pacote com passos, cenários e passos dos cenários,
// tudo em uma única transação de leitura para que as métricas vejam um
// snapshot consistente. Pacote de outro projeto é NotFound.
func (r *PackageRepository) FindPackage(ctx context.Context, projectID, packageID string) (domain.TestPackage, error) {
	if _, err := uuid.Parse(packageID); err != nil {
		return domain.TestPackage{}, apperror.NewNotFoundError("Pacote não encontrado.")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de leitura do pacote.", err)
		return domain.TestPackage{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	var pkg domain.TestPackage
	var status string
	err = tx.QueryRowContext(ctxTimeout, `
        SELECT id, project_id, title, description, status, release, approved_by_id, approved_at,
               rejection_reason, version, created_at, updated_at
        FROM test_packages
        WHERE id = $1 AND project_id = $2`, packageID, projectID,
	).Scan(&pkg.ID, &pkg.ProjectID, &pkg.Title, &pkg.Description, &status, &pkg.Release,
		&pkg.ApprovedByID, &pkg.ApprovedAt, &pkg.RejectionReason, &pkg.Version, &pkg.CreatedAt, &pkg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug("Pacote não encontrado.", map[string]interface{}{"package_id": packageID, "project_id": projectID})
		return domain.TestPackage{}, apperror.NewNotFoundError("Pacote não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pacote no DB.", err)
		return domain.TestPackage{}, apperror.NewDBError("Falha ao buscar pacote", err)
	}
	pkg.Status = domain.PackageStatus(status)

	if pkg.Steps, err = r.loadSteps(ctxTimeout, tx, `
        SELECT id, package_id, action, expected, step_order, status
        FROM package_steps WHERE package_id = $1 ORDER BY step_order`, pkg.ID); err != nil {
		return domain.TestPackage{}, err
	}
	if pkg.Scenarios, err = r.loadScenarios(ctxTimeout, tx, pkg.ID); err != nil {
		return domain.TestPackage{}, err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao encerrar transação de leitura do pacote.", err)
		return domain.TestPackage{}, apperror.NewDBError("Falha ao commitar transação", err)
	}
	return pkg, nil
}

func (r *PackageRepository) loadScenarios(ctx context.Context, tx *sql.Tx, packageID string) ([]domain.TestScenario, error) {
	rows, err := tx.QueryContext(ctx, `
        SELECT id, package_id, project_id, title, status, type, priority, environment, tags,
               rejection_reason, version, created_at, updated_at
        FROM test_scenarios
        WHERE package_id = $1
        ORDER BY created_at, id`, packageID)
	if err != nil {
		r.logger.Error("Falha ao listar cenários do pacote.", err)
		return nil, apperror.NewDBError("Falha ao listar cenários", err)
	}
	defer rows.Close()

	scenarios := []domain.TestScenario{}
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		var sc domain.TestScenario
		var status string
		if err := rows.Scan(&sc.ID, &sc.PackageID, &sc.ProjectID, &sc.Title, &status, &sc.Type, &sc.Priority,
			&sc.Environment, pq.Array(&sc.Tags), &sc.RejectionReason, &sc.Version, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			r.logger.Error("Falha ao ler cenário.", err)
			return nil, apperror.NewDBError("Falha ao ler cenário", err)
		}
		sc.Status = domain.ScenarioStatus(status)
		sc.Steps = []domain.Step{}
		index[sc.ID] = len(scenarios)
		ids = append(ids, sc.ID)
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar cenários", err)
	}
	if len(ids) == 0 {
		return scenarios, nil
	}

	steps, err := r.loadSteps(ctx, tx, `
        SELECT id, scenario_id, action, expected, step_order, status
        FROM scenario_steps WHERE scenario_id = ANY($1) ORDER BY scenario_id, step_order`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, st := range steps {
		i := index[st.ParentID]
		scenarios[i].Steps = append(scenarios[i].Steps, st)
	}
	return scenarios, nil
}

func (r *PackageRepository) loadSteps(ctx context.Context, tx *sql.Tx, query string, arg interface{}) ([]domain.Step, error) {
	rows, err := tx.QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Falha ao listar passos.", err)
		return nil, apperror.NewDBError("Falha ao listar passos", err)
	}
	defer rows.Close()

	steps := []domain.Step{}
	for rows.Next() {
		var st domain.Step
		var status string
		if err := rows.Scan(&st.ID, &st.ParentID, &st.Action, &st.Expected, &st.StepOrder, &status); err != nil {
			return nil, apperror.NewDBError("Falha ao ler passo", err)
		}
		st.Status = domain.StepStatus(status)
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar passos", err)
	}
	return steps, nil
}

// SaveStatus grava uma transição aprovada pelo guard com controle de
// concorrência otimista: se a versão mudou desde a leitura, nada é gravado.
func (r *PackageRepository) SaveStatus(ctx context.Context, t lifecycle.PackageTransition, expectedVersion int) error {
	r.logger.Debug("Gravando transição de pacote.", map[string]interface{}{
		"package_id": t.PackageID, "from": t.From, "to": t.To, "expected_version": expectedVersion,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// O motivo da última reprovação é mantido ao reenviar para teste.
	query := `
        UPDATE test_packages
        SET status = $1,
            approved_by_id = COALESCE($2, approved_by_id),
            approved_at = COALESCE($3, approved_at),
            rejection_reason = COALESCE($4, rejection_reason),
            version = version + 1,
            updated_at = $5
        WHERE id = $6 AND version = $7 AND status = $8`
	if t.To == domain.PackageAprovado {
		// A aprovação revalida os cenários no próprio UPDATE.
		query += `
          AND EXISTS (SELECT 1 FROM test_scenarios WHERE package_id = $6)
          AND NOT EXISTS (SELECT 1 FROM test_scenarios WHERE package_id = $6 AND status <> 'APPROVED')`
	}
	res, err := r.DB.ExecContext(ctxTimeout, query,
		string(t.To), t.ApprovedByID, t.ApprovedAt, t.RejectionReason, time.Now().UTC(),
		t.PackageID, expectedVersion, string(t.From),
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar status do pacote.", err)
		return apperror.NewDBError("Falha ao atualizar pacote", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if n == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC) do pacote.", map[string]interface{}{
			"package_id": t.PackageID, "expected_version": expectedVersion,
		})
		return apperror.NewConflictError("O pacote foi modificado por outra operação. Recarregue e tente novamente.")
	}

	r.logger.Info("Status do pacote atualizado.", map[string]interface{}{"package_id": t.PackageID, "status": t.To})
	return nil
}

// AddStep acrescenta um passo ao pacote com a próxima ordem livre.
// A linha do pacote é bloqueada para serializar inserções concorrentes.
func (r *PackageRepository) AddStep(ctx context.Context, packageID string, step domain.Step) (domain.Step, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Step{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctxTimeout, `SELECT id FROM test_packages WHERE id = $1 FOR UPDATE`, packageID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Step{}, apperror.NewNotFoundError("Pacote não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao bloquear pacote para novo passo.", err)
		return domain.Step{}, apperror.NewDBError("Falha ao bloquear pacote", err)
	}

	if err := tx.QueryRowContext(ctxTimeout,
		`SELECT COALESCE(MAX(step_order), 0) + 1 FROM package_steps WHERE package_id = $1`, packageID,
	).Scan(&step.StepOrder); err != nil {
		return domain.Step{}, apperror.NewDBError("Falha ao calcular ordem do passo", err)
	}

	step.ID = uuid.NewString()
	step.ParentID = packageID
	if step.Status == "" {
		step.Status = domain.StepPending
	}
	_, err = tx.ExecContext(ctxTimeout, `
        INSERT INTO package_steps (id, package_id, action, expected, step_order, status)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		step.ID, packageID, step.Action, step.Expected, step.StepOrder, string(step.Status),
	)
	if database.IsUniqueViolation(err) {
		return domain.Step{}, apperror.NewConflictError("Ordem de passo já utilizada. Tente novamente.")
	}
	if err != nil {
		r.logger.Error("Falha ao inserir passo do pacote.", err)
		return domain.Step{}, apperror.NewDBError("Falha ao inserir passo", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Step{}, apperror.NewDBError("Falha ao commitar transação", err)
	}
	return step, nil
}
