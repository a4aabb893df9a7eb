package scenariorepo

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

// ScenarioRepository persiste cenários, passos, execuções e bugs.
// Toda gravação que altera o status do cenário passa pelo OCC da coluna version,
// na mesma transação da gravação que a originou, e incrementa também a versão
// do pacote pai.
type ScenarioRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewScenarioRepository cria o repositório.
func NewScenarioRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ScenarioRepository {
	return &ScenarioRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// Save insere um cenário em CREATED. A FK composta (package_id, project_id)
// garante que o projeto é o mesmo do pacote; pacote aprovado é recusado.
func (r *ScenarioRepository) Save(ctx context.Context, sc domain.TestScenario) (domain.TestScenario, error) {
	sc.ID = uuid.NewString()
	sc.Status = domain.ScenarioCreated
	sc.Version = 1
	sc.CreatedAt = time.Now().UTC()
	sc.UpdatedAt = sc.CreatedAt
	if sc.Tags == nil {
		sc.Tags = []string{}
	}

	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `
            UPDATE test_packages SET version = version + 1, updated_at = $3
            WHERE id = $1 AND project_id = $2
            RETURNING status`, sc.PackageID, sc.ProjectID, sc.CreatedAt,
		).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NewNotFoundError("Pacote não encontrado.")
		}
		if err != nil {
			r.logger.Error("Falha ao bloquear pacote do cenário.", err)
			return apperror.NewDBError("Falha ao bloquear pacote", err)
		}
		if err := lifecycle.AssertPackageOpen(domain.PackageStatus(status)); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
            INSERT INTO test_scenarios (id, package_id, project_id, title, status, type, priority, environment,
                                        tags, version, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			sc.ID, sc.PackageID, sc.ProjectID, sc.Title, string(sc.Status), sc.Type, sc.Priority, sc.Environment,
			pq.Array(sc.Tags), sc.Version, sc.CreatedAt, sc.UpdatedAt,
		)
		if database.IsForeignKeyViolation(err) {
			return apperror.NewNotFoundError("Pacote não encontrado.")
		}
		if err != nil {
			r.logger.Error("Falha ao inserir cenário no DB.", err)
			return apperror.NewDBError("Falha ao inserir cenário", err)
		}
		return nil
	})
	if err != nil {
		return domain.TestScenario{}, err
	}

	r.logger.Info("Cenário criado.", map[string]interface{}{"scenario_id": sc.ID, "package_id": sc.PackageID})
	sc.Steps = []domain.Step{}
	return sc, nil
}

// FindByID carrega o cenário com seus passos em ordem.
func (r *ScenarioRepository) FindByID(ctx context.Context, scenarioID string) (domain.TestScenario, error) {
	if _, err := uuid.Parse(scenarioID); err != nil {
		return domain.TestScenario{}, apperror.NewNotFoundError("Cenário não encontrado.")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var sc domain.TestScenario
	var status string
	err := r.DB.QueryRowContext(ctxTimeout, `
        SELECT id, package_id, project_id, title, status, type, priority, environment, tags,
               rejection_reason, version, created_at, updated_at
        FROM test_scenarios WHERE id = $1`, scenarioID,
	).Scan(&sc.ID, &sc.PackageID, &sc.ProjectID, &sc.Title, &status, &sc.Type, &sc.Priority,
		&sc.Environment, pq.Array(&sc.Tags), &sc.RejectionReason, &sc.Version, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TestScenario{}, apperror.NewNotFoundError("Cenário não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar cenário no DB.", err)
		return domain.TestScenario{}, apperror.NewDBError("Falha ao buscar cenário", err)
	}
	sc.Status = domain.ScenarioStatus(status)

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, scenario_id, action, expected, step_order, status
        FROM scenario_steps WHERE scenario_id = $1 ORDER BY step_order`, scenarioID)
	if err != nil {
		r.logger.Error("Falha ao listar passos do cenário.", err)
		return domain.TestScenario{}, apperror.NewDBError("Falha ao listar passos", err)
	}
	defer rows.Close()

	sc.Steps = []domain.Step{}
	for rows.Next() {
		var st domain.Step
		var stepStatus string
		if err := rows.Scan(&st.ID, &st.ParentID, &st.Action, &st.Expected, &st.StepOrder, &stepStatus); err != nil {
			return domain.TestScenario{}, apperror.NewDBError("Falha ao ler passo", err)
		}
		st.Status = domain.StepStatus(stepStatus)
		sc.Steps = append(sc.Steps, st)
	}
	if err := rows.Err(); err != nil {
		return domain.TestScenario{}, apperror.NewDBError("Falha ao iterar passos", err)
	}
	return sc, nil
}

// SaveStatus grava uma transição de revisão com OCC.
func (r *ScenarioRepository) SaveStatus(ctx context.Context, t lifecycle.ScenarioTransition, expectedVersion int) error {
	return r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return r.applyStatus(ctx, tx, t, expectedVersion)
	})
}

// AddStep acrescenta um passo com a próxima ordem livre e grava a transição
// derivada (um passo PENDING desbloqueia um cenário BLOCKED).
func (r *ScenarioRepository) AddStep(ctx context.Context, step domain.Step, t lifecycle.ScenarioTransition, expectedVersion int) (domain.Step, error) {
	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := r.applyStatus(ctx, tx, t, expectedVersion); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(step_order), 0) + 1 FROM scenario_steps WHERE scenario_id = $1`, step.ParentID,
		).Scan(&step.StepOrder); err != nil {
			return apperror.NewDBError("Falha ao calcular ordem do passo", err)
		}

		step.ID = uuid.NewString()
		_, err := tx.ExecContext(ctx, `
            INSERT INTO scenario_steps (id, scenario_id, action, expected, step_order, status)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			step.ID, step.ParentID, step.Action, step.Expected, step.StepOrder, string(step.Status),
		)
		if database.IsUniqueViolation(err) {
			return apperror.NewConflictError("Ordem de passo já utilizada. Tente novamente.")
		}
		if err != nil {
			r.logger.Error("Falha ao inserir passo do cenário.", err)
			return apperror.NewDBError("Falha ao inserir passo", err)
		}
		return nil
	})
	if err != nil {
		return domain.Step{}, err
	}
	return step, nil
}

// UpdateStepStatus altera o status de um passo e grava o status derivado do cenário.
func (r *ScenarioRepository) UpdateStepStatus(ctx context.Context, scenarioID, stepID string, status domain.StepStatus, t lifecycle.ScenarioTransition, expectedVersion int) error {
	return r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := r.applyStatus(ctx, tx, t, expectedVersion); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE scenario_steps SET status = $1 WHERE id = $2 AND scenario_id = $3`,
			string(status), stepID, scenarioID)
		if err != nil {
			r.logger.Error("Falha ao atualizar passo.", err)
			return apperror.NewDBError("Falha ao atualizar passo", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperror.NewNotFoundError("Passo não encontrado.")
		}
		return nil
	})
}

// RecordExecution grava a execução (append-only) e o novo status do cenário.
func (r *ScenarioRepository) RecordExecution(ctx context.Context, exec domain.Execution, t lifecycle.ScenarioTransition, expectedVersion int) (domain.Execution, error) {
	exec.ID = uuid.NewString()
	exec.CreatedAt = time.Now().UTC()

	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := r.applyStatus(ctx, tx, t, expectedVersion); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO executions (id, scenario_id, status, notes, executed_by, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			exec.ID, exec.ScenarioID, string(exec.Status), exec.Notes, exec.ExecutedBy, exec.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao inserir execução.", err)
			return apperror.NewDBError("Falha ao inserir execução", err)
		}
		return nil
	})
	if err != nil {
		return domain.Execution{}, err
	}

	r.logger.Info("Execução registrada.", map[string]interface{}{
		"scenario_id": exec.ScenarioID, "result": exec.Status, "status": t.To,
	})
	return exec, nil
}

// RecordBug grava o bug e o status decidido pelo guard a partir do evento BugRecorded.
func (r *ScenarioRepository) RecordBug(ctx context.Context, bug domain.Bug, t lifecycle.ScenarioTransition, expectedVersion int) (domain.Bug, error) {
	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := r.applyStatus(ctx, tx, t, expectedVersion); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO bugs (id, scenario_id, title, description, severity, status, related_step_id, reported_by, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			bug.ID, bug.ScenarioID, bug.Title, bug.Description, string(bug.Severity), string(bug.Status),
			bug.RelatedStepID, bug.ReportedBy, bug.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao inserir bug.", err)
			return apperror.NewDBError("Falha ao inserir bug", err)
		}
		return nil
	})
	if err != nil {
		return domain.Bug{}, err
	}

	r.logger.Info("Bug registrado.", map[string]interface{}{"scenario_id": bug.ScenarioID, "bug_id": bug.ID, "status": t.To})
	return bug, nil
}

// HasExecutions informa se o cenário já teve alguma execução.
func (r *ScenarioRepository) HasExecutions(ctx context.Context, scenarioID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM executions WHERE scenario_id = $1)`, scenarioID,
	).Scan(&exists); err != nil {
		r.logger.Error("Falha ao verificar execuções.", err)
		return false, apperror.NewDBError("Falha ao verificar execuções", err)
	}
	return exists, nil
}

// LatestExecution devolve a execução mais recente, ou nil se não houver.
func (r *ScenarioRepository) LatestExecution(ctx context.Context, scenarioID string) (*domain.Execution, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var e domain.Execution
	var status string
	err := r.DB.QueryRowContext(ctxTimeout, `
        SELECT id, scenario_id, status, notes, executed_by, created_at
        FROM executions WHERE scenario_id = $1
        ORDER BY created_at DESC, id DESC LIMIT 1`, scenarioID,
	).Scan(&e.ID, &e.ScenarioID, &status, &e.Notes, &e.ExecutedBy, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Falha ao buscar última execução.", err)
		return nil, apperror.NewDBError("Falha ao buscar execução", err)
	}
	e.Status = domain.ExecutionStatus(status)
	return &e, nil
}

func (r *ScenarioRepository) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação do cenário.", err)
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if err := fn(ctxTimeout, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação do cenário.", err)
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	return nil
}

// applyStatus incrementa a versão mesmo quando o status não muda, para que
// gravações concorrentes sobre o mesmo cenário se excluam. Ao mudar de status,
// o motivo de reprovação é substituído (nil fora de REJECTED).
func (r *ScenarioRepository) applyStatus(ctx context.Context, tx *sql.Tx, t lifecycle.ScenarioTransition, expectedVersion int) error {
	now := time.Now().UTC()
	if err := r.touchPackage(ctx, tx, t.ScenarioID, now); err != nil {
		return err
	}
	if !t.Changed() {
		res, err := tx.ExecContext(ctx, `
            UPDATE test_scenarios SET version = version + 1, updated_at = $1
            WHERE id = $2 AND version = $3`, now, t.ScenarioID, expectedVersion)
		return r.checkOCC(res, err, t, expectedVersion)
	}

	res, err := tx.ExecContext(ctx, `
        UPDATE test_scenarios
        SET status = $1, rejection_reason = $2, version = version + 1, updated_at = $3
        WHERE id = $4 AND version = $5`,
		string(t.To), t.RejectionReason, now, t.ScenarioID, expectedVersion)
	return r.checkOCC(res, err, t, expectedVersion)
}

// touchPackage bloqueia o pacote pai e incrementa sua versão. Uma transição
// de pacote lida antes desta gravação falha no OCC, e um pacote já aprovado
// recusa a alteração do cenário.
func (r *ScenarioRepository) touchPackage(ctx context.Context, tx *sql.Tx, scenarioID string, now time.Time) error {
	var status string
	err := tx.QueryRowContext(ctx, `
        UPDATE test_packages p SET version = p.version + 1, updated_at = $2
        FROM test_scenarios s
        WHERE s.id = $1 AND p.id = s.package_id
        RETURNING p.status`, scenarioID, now,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NewNotFoundError("Cenário não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao bloquear pacote do cenário.", err)
		return apperror.NewDBError("Falha ao bloquear pacote", err)
	}
	return lifecycle.AssertPackageOpen(domain.PackageStatus(status))
}

func (r *ScenarioRepository) checkOCC(res sql.Result, err error, t lifecycle.ScenarioTransition, expectedVersion int) error {
	if err != nil {
		r.logger.Error("Falha ao atualizar status do cenário.", err)
		return apperror.NewDBError("Falha ao atualizar cenário", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if n == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC) do cenário.", map[string]interface{}{
			"scenario_id": t.ScenarioID, "expected_version": expectedVersion,
		})
		return apperror.NewConflictError("O cenário foi modificado por outra operação. Recarregue e tente novamente.")
	}
	if t.Changed() {
		r.logger.Debug("Status do cenário alterado.", map[string]interface{}{
			"scenario_id": t.ScenarioID, "from": t.From, "to": t.To, "via": t.Via, "trigger": t.Trigger,
		})
	}
	return nil
}
