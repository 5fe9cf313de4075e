package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"donation-platform/internal/models"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// TargetFilter narrows campaign, program and patient listings
type TargetFilter struct {
	Query  string              // case-insensitive match on the title or name
	Status models.TargetStatus // empty matches every status
	Limit  int
	Offset int
}

// likeEscaper makes LIKE wildcards in a search query match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause builds the WHERE clause and its arguments for f. searchColumn
// is the column the free-text query matches against.
func (f TargetFilter) whereClause(searchColumn string) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
		conditions = append(conditions, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, searchColumn, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (f TargetFilter) limit() int {
	if f.Limit <= 0 {
		return 20
	}
	return f.Limit
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
