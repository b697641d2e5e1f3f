package sport

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SportRepository interface {
	CreateSport(sport *Sport) error
	GetSportByID(id uint) (*Sport, error)
	FindSportByName(name string) (*Sport, error)
	GetOrCreateSport(name string, sportType SportType) (*Sport, error)
	GetAllSports(page, pageSize int, searchTerm string) ([]Sport, int64, error)
	UpdateSport(sport *Sport) error
	DeleteSport(id uint) error
}

type sportRepository struct {
	db *gorm.DB
}

// NewSportRepository creates a new instance of SportRepository.
func NewSportRepository(db *gorm.DB) SportRepository {
	return &sportRepository{db: db}
}

func (r *sportRepository) CreateSport(sport *Sport) error {
	return r.db.Create(sport).Error
}

func (r *sportRepository) GetSportByID(id uint) (*Sport, error) {
	var sport Sport
	if err := r.db.First(&sport, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Convention: (nil, nil) when not found
		}
		return nil, err
	}
	return &sport, nil
}

// FindSportByName matches case-insensitively.
func (r *sportRepository) FindSportByName(name string) (*Sport, error) {
	var sport Sport
	if err := r.db.Where("LOWER(name) = ?", Key(name)).First(&sport).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sport, nil
}

// GetOrCreateSport returns the named sport, inserting it when missing. A
// concurrent insert of the same name is absorbed by the unique index.
func (r *sportRepository) GetOrCreateSport(name string, sportType SportType) (*Sport, error) {
	existing, err := r.FindSportByName(name)
	if err != nil || existing != nil {
		return existing, err
	}
	sport := &Sport{Name: name, SportType: sportType}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(sport).Error; err != nil {
		return nil, err
	}
	return r.FindSportByName(name)
}

func (r *sportRepository) GetAllSports(page, pageSize int, searchTerm string) ([]Sport, int64, error) {
	var sports []Sport
	var total int64

	query := r.db.Model(&Sport{})
	if searchTerm != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+Key(searchTerm)+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("name asc").Offset(offset).Limit(pageSize).Find(&sports).Error
	return sports, total, err
}

func (r *sportRepository) UpdateSport(sport *Sport) error {
	return r.db.Save(sport).Error
}

func (r *sportRepository) DeleteSport(id uint) error {
	result := r.db.Delete(&Sport{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
