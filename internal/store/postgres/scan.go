package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pulseflow/pulseflow/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanAutomation scans a single row into a model.Automation.
// The row must contain columns in the order defined by automationColumns.
func scanAutomation(row scannable) (*model.Automation, error) {
	var a model.Automation
	var (
		description sql.NullString
		owner       sql.NullString
		createdBy   sql.NullString
	)

	err := row.Scan(
		&a.ID,
		&a.Name,
		&description,
		&owner,
		&a.Enabled,
		&a.CreatedAt,
		&createdBy,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	a.Owner = owner.String
	a.CreatedBy = createdBy.String
	return &a, nil
}

// scanAutomationWithTotal scans a row that has a leading total_count column
// followed by the standard automation columns. Used by queryListAutomations
// with COUNT(*) OVER().
func scanAutomationWithTotal(row scannable) (*model.Automation, int, error) {
	var total int
	var a model.Automation
	var (
		description sql.NullString
		owner       sql.NullString
		createdBy   sql.NullString
	)

	err := row.Scan(
		&total,
		&a.ID,
		&a.Name,
		&description,
		&owner,
		&a.Enabled,
		&a.CreatedAt,
		&createdBy,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	a.Description = description.String
	a.Owner = owner.String
	a.CreatedBy = createdBy.String
	return &a, total, nil
}

// scanNode scans a single row into a model.Node, resolving the params
// variant from the stored kind.
func scanNode(row scannable) (*model.Node, error) {
	var n model.Node
	var (
		label  sql.NullString
		kind   string
		params []byte
	)

	err := row.Scan(
		&n.ID,
		&n.AutomationID,
		&kind,
		&label,
		&n.Position.X,
		&n.Position.Y,
		&params,
		&n.IsLastNode,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Kind = model.NodeKind(kind)
	n.Label = label.String
	if len(params) > 0 {
		p, err := model.DecodeParams(n.Kind, params)
		if err != nil {
			return nil, err
		}
		n.Params = p
	}
	return &n, nil
}

// scanNodes scans multiple rows into a slice of model.Node pointers.
func scanNodes(rows *sql.Rows) ([]*model.Node, error) {
	var nodes []*model.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// scanConnection scans a single row into a model.Connection.
func scanConnection(row scannable) (*model.Connection, error) {
	var c model.Connection
	err := row.Scan(
		&c.AutomationID,
		&c.SourceID,
		&c.SourceHandle,
		&c.TargetID,
		&c.TargetHandle,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanConnections scans multiple rows into a slice of model.Connection pointers.
func scanConnections(rows *sql.Rows) ([]*model.Connection, error) {
	var conns []*model.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conns, nil
}

// scanRun scans a single row into a model.Run.
func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var (
		startedBy  sql.NullString
		finishedAt sql.NullTime
		runErr     sql.NullString
	)
	err := row.Scan(
		&r.ID,
		&r.AutomationID,
		&r.Status,
		&r.StartedAt,
		&startedBy,
		&finishedAt,
		&runErr,
	)
	if err != nil {
		return nil, err
	}
	r.StartedBy = startedBy.String
	r.Error = runErr.String
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

// scanRuns scans multiple rows into a slice of model.Run pointers.
func scanRuns(rows *sql.Rows) ([]*model.Run, error) {
	var runs []*model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// scanNodeResult scans a single row into a model.NodeResult.
func scanNodeResult(row scannable) (*model.NodeResult, error) {
	var r model.NodeResult
	var artifact []byte
	err := row.Scan(&r.AutomationID, &r.NodeID, &r.RunID, &artifact, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(artifact) > 0 {
		r.Artifact = json.RawMessage(artifact)
	}
	return &r, nil
}

// scanNodeResults scans multiple rows into a slice of model.NodeResult pointers.
func scanNodeResults(rows *sql.Rows) ([]*model.NodeResult, error) {
	var results []*model.NodeResult
	for rows.Next() {
		r, err := scanNodeResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		actor   sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.AutomationID, &actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// scanConfig scans a single row into a model.Config.
func scanConfig(row scannable) (*model.Config, error) {
	var c model.Config
	var value []byte
	err := row.Scan(&c.Key, &value, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Value = json.RawMessage(value)
	return &c, nil
}

// scanConfigs scans multiple rows into a slice of model.Config pointers.
func scanConfigs(rows *sql.Rows) ([]*model.Config, error) {
	var configs []*model.Config
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
