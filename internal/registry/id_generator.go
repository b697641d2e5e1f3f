package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IDGenerator allocates public player, coach and manager identifiers from
// id_sequences rows. Every method must run inside the transaction that
// inserts the identified row: the increment holds the sequence row lock
// until that transaction ends.
type IDGenerator struct {
	now func() time.Time
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// NextPlayerID returns P<YY><seq5>, strictly increasing within a year.
func (g *IDGenerator) NextPlayerID(tx *gorm.DB) (string, error) {
	prefix := fmt.Sprintf("P%02d", g.now().Year()%100)
	n, err := nextValue(tx, "player:"+prefix[1:], func() (int64, error) {
		return maxSuffix(tx, &Player{}, "player_id", prefix)
	})
	if err != nil {
		return "", fmt.Errorf("allocate player id: %w", err)
	}
	return fmt.Sprintf("%s%05d", prefix, n), nil
}

// NextCoachID returns C<seq6>.
func (g *IDGenerator) NextCoachID(tx *gorm.DB) (string, error) {
	n, err := nextValue(tx, "coach", func() (int64, error) {
		return maxSuffix(tx, &Coach{}, "coach_id", "C")
	})
	if err != nil {
		return "", fmt.Errorf("allocate coach id: %w", err)
	}
	return fmt.Sprintf("C%06d", n), nil
}

// NextManagerID returns M<seq5>.
func (g *IDGenerator) NextManagerID(tx *gorm.DB) (string, error) {
	n, err := nextValue(tx, "manager", func() (int64, error) {
		return maxSuffix(tx, &Manager{}, "manager_id", "M")
	})
	if err != nil {
		return "", fmt.Errorf("allocate manager id: %w", err)
	}
	return fmt.Sprintf("M%05d", n), nil
}

// nextValue increments the scope counter and returns the new value. A missing
// counter is created from seed, so identifiers issued before the counter
// existed are never handed out again.
func nextValue(tx *gorm.DB, scope string, seed func() (int64, error)) (int64, error) {
	var count int64
	if err := tx.Model(&IDSequence{}).Where("scope = ?", scope).Count(&count).Error; err != nil {
		return 0, err
	}
	if count == 0 {
		start, err := seed()
		if err != nil {
			return 0, err
		}
		// A concurrent creator may win the insert; its row is just as good.
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&IDSequence{Scope: scope, LastValue: start}).Error
		if err != nil {
			return 0, err
		}
	}

	res := tx.Model(&IDSequence{}).
		Where("scope = ?", scope).
		UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected != 1 {
		return 0, fmt.Errorf("sequence %q not found", scope)
	}

	var seq IDSequence
	if err := tx.Where("scope = ?", scope).Take(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

// maxSuffix scans existing identifiers with prefix and returns the largest
// numeric suffix. Identifiers that do not parse are ignored.
func maxSuffix(tx *gorm.DB, model any, column, prefix string) (int64, error) {
	var ids []string
	err := tx.Unscoped().Model(model).Where(column+" LIKE ?", prefix+"%").Pluck(column, &ids).Error
	if err != nil {
		return 0, err
	}
	var max int64
	for _, id := range ids {
		n, err := strconv.ParseInt(strings.TrimPrefix(id, prefix), 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}
