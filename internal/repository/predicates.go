package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/query"
)

var sortColumns = map[string]string{
	"$createdAt": "created_at",
	"$updatedAt": "updated_at",
	"name":       "name",
	"size":       "size",
	"type":       "type",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// compiled splits a predicate list into filtering scope, ordering and limit.
type compiled struct {
	where  []func(*gorm.DB) *gorm.DB
	orders []clause.OrderByColumn
	limit  int
}

func compile(preds []query.Predicate) (*compiled, error) {
	c := &compiled{}

	for _, p := range preds {
		switch p := p.(type) {
		case query.OwnedOrSharedWith:
			c.where = append(c.where, func(tx *gorm.DB) *gorm.DB {
				return tx.Where(
					"files.owner_id = ? OR EXISTS (SELECT 1 FROM file_shares WHERE file_shares.file_id = files.id AND file_shares.email = ?)",
					p.OwnerID, p.Email,
				)
			})
		case query.OwnedBy:
			c.where = append(c.where, func(tx *gorm.DB) *gorm.DB {
				return tx.Where("files.owner_id = ?", p.OwnerID)
			})
		case query.TypeIn:
			types := make([]string, 0, len(p.Types))
			for _, t := range p.Types {
				types = append(types, string(t))
			}
			c.where = append(c.where, func(tx *gorm.DB) *gorm.DB {
				return tx.Where("files.type IN ?", types)
			})
		case query.NameContains:
			pattern := "%" + likeEscaper.Replace(p.Substring) + "%"
			c.where = append(c.where, func(tx *gorm.DB) *gorm.DB {
				return tx.Where(`files.name LIKE ? ESCAPE '\'`, pattern)
			})
		case query.Limit:
			c.limit = p.N
		case query.Order:
			column, ok := sortColumns[p.Key]
			if !ok {
				return nil, fmt.Errorf("%w: unknown sort key %q", apperr.ErrValidation, p.Key)
			}
			c.orders = append(c.orders, clause.OrderByColumn{
				Column: clause.Column{Table: "files", Name: column},
				Desc:   p.Desc,
			})
		default:
			return nil, fmt.Errorf("%w: unsupported predicate %T", apperr.ErrValidation, p)
		}
	}

	return c, nil
}

func (c *compiled) filter(tx *gorm.DB) *gorm.DB {
	for _, w := range c.where {
		tx = w(tx)
	}
	return tx
}
