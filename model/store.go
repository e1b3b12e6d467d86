package model

import (
	"database/sql"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Table names, one per entity kind. Keys are fixed-width UUIDs except
// api_keys, which is keyed by the API key string and indexes back to the
// owning user's UUID.
const (
	TableUsers   = "users"
	TableRoles   = "roles"
	TableQuotas  = "quotas"
	TableModels  = "models"
	TableAPIKeys = "api_keys"
)

var (
	// ErrNotFound reports a missing key; it maps to 404 at the admin edge.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicate reports a related key owned by a different main row; it
	// maps to 409 at the admin edge.
	ErrDuplicate = errors.New("related key already exists")
)

// Row is the storage shape of every table: an opaque key and a
// length-prefixed binary value.
type Row struct {
	Key   []byte `gorm:"primaryKey;size:64"`
	Value []byte
}

// Store is typed CRUD over named tables of byte-serialised values with a
// serializable-transaction primitive for the related-items operations.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) getTable(table string) ([]Row, error) {
	var rows []Row
	if err := s.db.Table(table).Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "read table %s", table)
	}
	return rows, nil
}

func (s *Store) getItem(table string, key []byte) ([]byte, error) {
	var row Row
	err := s.db.Table(table).Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.WithStack(ErrNotFound)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read item from %s", table)
	}
	return row.Value, nil
}

func (s *Store) insertItem(table string, key []byte, value []byte) error {
	row := Row{Key: key, Value: value}
	err := s.db.Table(table).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	return errors.Wrapf(err, "insert item into %s", table)
}

func (s *Store) removeItem(table string, key []byte) error {
	result := s.db.Table(table).Where("key = ?", key).Delete(&Row{})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "remove item from %s", table)
	}
	if result.RowsAffected == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

// relatedProjection derives the related-table keys declared by a serialised
// main value. It is the per-type contract that lets the store displace an
// old row's related items without understanding the value format.
type relatedProjection func(value []byte) ([][]byte, error)

// insertRelatedItems inserts main into mainTable and its related rows into
// relatedTable within one serializable transaction. A displaced old main
// value first has its declared related keys removed. Any related key that
// still exists afterwards belongs to another main row: the transaction
// aborts with ErrDuplicate and nothing becomes visible.
func (s *Store) insertRelatedItems(mainTable, relatedTable string, key []byte, value []byte, related []Row, project relatedProjection) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var old Row
		err := tx.Table(mainTable).Where("key = ?", key).Take(&old).Error
		switch {
		case err == nil:
			oldKeys, err := project(old.Value)
			if err != nil {
				return errors.Wrapf(err, "project displaced value in %s", mainTable)
			}
			for _, oldKey := range oldKeys {
				if err := tx.Table(relatedTable).Where("key = ?", oldKey).Delete(&Row{}).Error; err != nil {
					return errors.Wrapf(err, "remove displaced related key from %s", relatedTable)
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return errors.Wrapf(err, "read displaced value from %s", mainTable)
		}

		row := Row{Key: key, Value: value}
		if err := tx.Table(mainTable).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return errors.Wrapf(err, "insert item into %s", mainTable)
		}

		for _, item := range related {
			var existing Row
			err := tx.Table(relatedTable).Where("key = ?", item.Key).Take(&existing).Error
			switch {
			case err == nil:
				return errors.WithStack(ErrDuplicate)
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return errors.Wrapf(err, "check related key in %s", relatedTable)
			}
			if err := tx.Table(relatedTable).Create(&item).Error; err != nil {
				return errors.Wrapf(err, "insert related item into %s", relatedTable)
			}
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return err
}

// removeRelatedItems removes main and its declared related rows within one
// serializable transaction.
func (s *Store) removeRelatedItems(mainTable, relatedTable string, key []byte, project relatedProjection) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var old Row
		err := tx.Table(mainTable).Where("key = ?", key).Take(&old).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.WithStack(ErrNotFound)
		}
		if err != nil {
			return errors.Wrapf(err, "read item from %s", mainTable)
		}

		relatedKeys, err := project(old.Value)
		if err != nil {
			return errors.Wrapf(err, "project removed value in %s", mainTable)
		}
		for _, relatedKey := range relatedKeys {
			if err := tx.Table(relatedTable).Where("key = ?", relatedKey).Delete(&Row{}).Error; err != nil {
				return errors.Wrapf(err, "remove related key from %s", relatedTable)
			}
		}
		if err := tx.Table(mainTable).Where("key = ?", key).Delete(&Row{}).Error; err != nil {
			return errors.Wrapf(err, "remove item from %s", mainTable)
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
