package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pulseflow/pulseflow/internal/model"
)

// automationColumns is the column list used for SELECT statements on the
// automations table.
const automationColumns = `id, name, description, owner, enabled,
	created_at, created_by, updated_at`

// nodeColumns is the column list used for SELECT statements on the nodes table.
const nodeColumns = `id, automation_id, kind, label, position_x, position_y,
	params, is_last_node, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateAutomation(ctx context.Context, db executor, a *model.Automation) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO automations (
			id, name, description, owner, enabled,
			created_at, created_by, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8
		)`,
		a.ID,
		a.Name,
		nullString(a.Description),
		nullString(a.Owner),
		a.Enabled,
		a.CreatedAt,
		nullString(a.CreatedBy),
		a.UpdatedAt,
	)
	return err
}

func queryGetAutomation(ctx context.Context, db executor, id string) (*model.Automation, error) {
	row := db.QueryRowContext(ctx, `SELECT `+automationColumns+` FROM automations WHERE id = $1`, id)
	a, err := scanAutomation(row)
	if err != nil {
		return nil, err
	}

	// Fetch graph structure.
	nodes, err := queryGetNodes(ctx, db, id)
	if err != nil {
		return nil, err
	}
	a.Nodes = nodes

	conns, err := queryGetConnections(ctx, db, id)
	if err != nil {
		return nil, err
	}
	a.Connections = conns

	return a, nil
}

func queryListAutomations(ctx context.Context, db executor, filter model.AutomationFilter) ([]*model.Automation, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.Owner != "" {
		whereClauses = append(whereClauses, "owner = "+nextArg())
		args = append(args, filter.Owner)
	}

	if filter.Enabled != nil {
		whereClauses = append(whereClauses, "enabled = "+nextArg())
		args = append(args, *filter.Enabled)
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf("(name ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')", p, p))
		args = append(args, filter.Search)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + automationColumns + " FROM automations" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list automations: %w", err)
	}
	defer rows.Close()

	var automations []*model.Automation
	var total int
	for rows.Next() {
		a, t, err := scanAutomationWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan automations: %w", err)
		}
		total = t
		automations = append(automations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan automations: %w", err)
	}

	return automations, total, nil
}

func queryUpdateAutomation(ctx context.Context, db executor, a *model.Automation) error {
	return db.QueryRowContext(ctx, `
		UPDATE automations SET
			name = $2,
			description = $3,
			owner = $4,
			enabled = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID,
		a.Name,
		nullString(a.Description),
		nullString(a.Owner),
		a.Enabled,
	).Scan(&a.UpdatedAt)
}

func queryDeleteAutomation(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM automations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryCreateNode(ctx context.Context, db executor, node *model.Node) error {
	params, err := node.EncodeParams()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO nodes (
			id, automation_id, kind, label, position_x, position_y,
			params, is_last_node, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10
		)`,
		node.ID,
		node.AutomationID,
		string(node.Kind),
		nullString(node.Label),
		node.Position.X,
		node.Position.Y,
		jsonbBytes(params),
		node.IsLastNode,
		node.CreatedAt,
		node.UpdatedAt,
	)
	return err
}

func queryUpdateNode(ctx context.Context, db executor, node *model.Node) error {
	params, err := node.EncodeParams()
	if err != nil {
		return err
	}
	return db.QueryRowContext(ctx, `
		UPDATE nodes SET
			kind = $2,
			label = $3,
			position_x = $4,
			position_y = $5,
			params = $6,
			is_last_node = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		node.ID,
		string(node.Kind),
		nullString(node.Label),
		node.Position.X,
		node.Position.Y,
		jsonbBytes(params),
		node.IsLastNode,
	).Scan(&node.UpdatedAt)
}

func queryGetNodes(ctx context.Context, db executor, automationID string) ([]*model.Node, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE automation_id = $1
		ORDER BY created_at ASC`,
		automationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

func queryCreateConnection(ctx context.Context, db executor, conn *model.Connection) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO connections (
			automation_id, source_id, source_handle, target_id, target_handle, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		conn.AutomationID,
		conn.SourceID,
		conn.SourceHandle,
		conn.TargetID,
		conn.TargetHandle,
		conn.CreatedAt,
	)
	return err
}

func queryGetConnections(ctx context.Context, db executor, automationID string) ([]*model.Connection, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT automation_id, source_id, source_handle, target_id, target_handle, created_at
		FROM connections
		WHERE automation_id = $1
		ORDER BY created_at ASC`,
		automationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConnections(rows)
}

func queryGetGraph(ctx context.Context, db executor, automationID string) (*model.GraphResponse, error) {
	nodes, err := queryGetNodes(ctx, db, automationID)
	if err != nil {
		return nil, fmt.Errorf("graph: fetch nodes: %w", err)
	}

	conns, err := queryGetConnections(ctx, db, automationID)
	if err != nil {
		return nil, fmt.Errorf("graph: fetch connections: %w", err)
	}

	if nodes == nil {
		nodes = []*model.Node{}
	}
	if conns == nil {
		conns = []*model.Connection{}
	}

	g := &model.Graph{AutomationID: automationID, Nodes: nodes, Connections: conns}
	return &model.GraphResponse{
		Nodes:       nodes,
		Connections: conns,
		Stats:       g.Stats(),
	}, nil
}

func queryCreateRun(ctx context.Context, db executor, run *model.Run) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, automation_id, status, started_at, started_by)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID,
		run.AutomationID,
		string(run.Status),
		run.StartedAt,
		nullString(run.StartedBy),
	)
	return err
}

func queryGetRun(ctx context.Context, db executor, id string) (*model.Run, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, automation_id, status, started_at, started_by, finished_at, error
		FROM runs WHERE id = $1`, id)
	return scanRun(row)
}

func queryListRuns(ctx context.Context, db executor, automationID string) ([]*model.Run, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, automation_id, status, started_at, started_by, finished_at, error
		FROM runs
		WHERE automation_id = $1
		ORDER BY started_at DESC`,
		automationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func queryFinishRun(ctx context.Context, db executor, id string, status model.RunStatus, runErr string) (*model.Run, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE runs
		SET status = $2, finished_at = NOW(), error = $3
		WHERE id = $1
		RETURNING id, automation_id, status, started_at, started_by, finished_at, error`,
		id, string(status), nullString(runErr),
	)
	return scanRun(row)
}

func queryUpsertNodeResult(ctx context.Context, db executor, r *model.NodeResult) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO node_results (automation_id, node_id, run_id, artifact)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (automation_id, node_id)
		DO UPDATE SET run_id = $3, artifact = $4, updated_at = NOW()
		RETURNING updated_at`,
		r.AutomationID, r.NodeID, r.RunID, jsonbBytes(r.Artifact),
	).Scan(&r.UpdatedAt)
}

func queryGetNodeResult(ctx context.Context, db executor, automationID, nodeID string) (*model.NodeResult, error) {
	row := db.QueryRowContext(ctx, `
		SELECT automation_id, node_id, run_id, artifact, updated_at
		FROM node_results
		WHERE automation_id = $1 AND node_id = $2`,
		automationID, nodeID)
	return scanNodeResult(row)
}

func queryListNodeResults(ctx context.Context, db executor, automationID string) ([]*model.NodeResult, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT automation_id, node_id, run_id, artifact, updated_at
		FROM node_results
		WHERE automation_id = $1
		ORDER BY node_id`,
		automationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodeResults(rows)
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, automation_id, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.AutomationID, e.Actor, []byte(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, automationID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, automation_id, actor, payload, created_at
		FROM events
		WHERE automation_id = $1
		ORDER BY created_at ASC`,
		automationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func querySetConfig(ctx context.Context, db executor, c *model.Config) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO configs (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
		RETURNING created_at, updated_at`,
		c.Key, []byte(c.Value),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func queryGetConfig(ctx context.Context, db executor, key string) (*model.Config, error) {
	row := db.QueryRowContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs WHERE key = $1`, key)
	return scanConfig(row)
}

func queryListConfigs(ctx context.Context, db executor, namespace string) ([]*model.Config, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs WHERE key LIKE $1 || ':%'
		ORDER BY key`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

func queryListAllConfigs(ctx context.Context, db executor) ([]*model.Config, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

func queryDeleteConfig(ctx context.Context, db executor, key string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM configs WHERE key = $1`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"name": true, "created_at": true, "updated_at": true, "owner": true,
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
