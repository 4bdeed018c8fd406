// Пакет dao хранит документы редактора в базе данных через gorm.
// Поддерживаются PostgreSQL и встроенный SQLite, драйвер выбирается по строке подключения.
package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLog "gorm.io/gorm/logger"

	"github.com/aisa-it/docedit/internal/docedit/dto"
)

var ErrDocumentNotFound = errors.New("document not found")

// Document сохраненная каноническая разметка документа.
type Document struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `json:"name" validate:"required,max=150"`
	Data    string `json:"data"`
	Version int    `json:"version" gorm:"default:1"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = GenUUID()
	}
	return nil
}

func (d *Document) ToLightDTO() *dto.DocumentLight {
	if d == nil {
		return nil
	}
	return &dto.DocumentLight{
		Id:      d.ID.String(),
		Name:    d.Name,
		Version: d.Version,
	}
}

func (d *Document) ToDTO() *dto.Document {
	if d == nil {
		return nil
	}
	return &dto.Document{
		DocumentLight: *d.ToLightDTO(),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Data:          d.Data,
	}
}

func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

// Open открывает базу по строке подключения. Строки postgres:// и postgresql:// и строки вида
// "host=..." открываются драйвером PostgreSQL, остальные считаются путем к файлу SQLite.
func Open(dsn string, logger gormLog.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if isPostgres(dsn) {
		dialector = postgres.New(postgres.Config{DSN: dsn})
	} else {
		dialector = sqlite.Open(dsn)
	}
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger,
	})
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Document{})
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, doc *Document) error {
	doc.Version = 1
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// List возвращает страницу документов, новые первыми, и общее количество.
func (s *Store) List(ctx context.Context, offset, limit int) ([]Document, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Document{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var docs []Document
	if err := s.db.WithContext(ctx).
		Select("id", "name", "version", "created_at", "updated_at").
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, count, nil
}

// Update заменяет название и разметку и увеличивает версию.
func (s *Store) Update(ctx context.Context, id uuid.UUID, name, data string) (*Document, error) {
	var doc *Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Document
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		if name != "" {
			current.Name = name
		}
		current.Data = data
		current.Version++
		if err := tx.Select("name", "data", "version", "updated_at").Save(&current).Error; err != nil {
			return err
		}
		doc = &current
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	return doc, err
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
