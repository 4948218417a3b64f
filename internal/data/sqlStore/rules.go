package sqlStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/smartsort/internal/domain/docModel"
)

func (s *Store) ListActiveRules(ctx context.Context) ([]docModel.Rule, error) {
	return s.queryRules(ctx, "SELECT id, name, priority, active, conditions, actions, created_at FROM rules WHERE active = 1 ORDER BY priority ASC, id ASC")
}

func (s *Store) ListRules(ctx context.Context) ([]docModel.Rule, error) {
	return s.queryRules(ctx, "SELECT id, name, priority, active, conditions, actions, created_at FROM rules ORDER BY priority ASC, id ASC")
}

// SaveRule inserts a rule when Id is zero, otherwise updates it in place.
func (s *Store) SaveRule(ctx context.Context, rule docModel.Rule) (int64, error) {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return 0, fmt.Errorf("marshalling conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return 0, fmt.Errorf("marshalling actions: %w", err)
	}

	if rule.Id == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO rules (name, priority, active, conditions, actions, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rule.Name, rule.Priority, rule.Active, string(conditions), string(actions), formatTime(time.Now()))
		if err != nil {
			return 0, fmt.Errorf("inserting rule: %w", err)
		}
		return res.LastInsertId()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE rules SET name = ?, priority = ?, active = ?, conditions = ?, actions = ? WHERE id = ?
	`, rule.Name, rule.Priority, rule.Active, string(conditions), string(actions), rule.Id)
	if err != nil {
		return 0, fmt.Errorf("updating rule %d: %w", rule.Id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("%w: %d", docModel.ErrRuleNotFound, rule.Id)
	}
	return rule.Id, nil
}

func (s *Store) SetRuleActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE rules SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("toggling rule %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", docModel.ErrRuleNotFound, id)
	}
	return nil
}

func (s *Store) queryRules(ctx context.Context, query string) ([]docModel.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var rules []docModel.Rule
	for rows.Next() {
		var rule docModel.Rule
		var conditions, actions string
		var created sql.NullString
		if err := rows.Scan(&rule.Id, &rule.Name, &rule.Priority, &rule.Active, &conditions, &actions, &created); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
			return nil, fmt.Errorf("rule %d conditions: %w", rule.Id, err)
		}
		if err := json.Unmarshal([]byte(actions), &rule.Actions); err != nil {
			return nil, fmt.Errorf("rule %d actions: %w", rule.Id, err)
		}
		rule.CreatedAt = parseTime(created)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
