package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/ports"
)

type commandDefinitionRow struct {
	ID                   string                 `gorm:"primaryKey;size:64"`
	Intent               string                 `gorm:"size:64;not null;index"`
	Category             string                 `gorm:"size:64"`
	Description          string                 `gorm:"type:text"`
	Complexity           string                 `gorm:"size:16;not null"`
	RequiresBusinessData bool                   `gorm:"not null;default:false"`
	FallbackReason       string                 `gorm:"size:64"`
	ResponseTemplate     string                 `gorm:"type:text;not null"`
	Triggers             []string               `gorm:"type:jsonb;serializer:json;not null"`
	Action               *domain.ActionTemplate `gorm:"type:jsonb;serializer:json"`
	RequiredEntities     []string               `gorm:"type:jsonb;serializer:json"`
	Examples             []string               `gorm:"type:jsonb;serializer:json"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (commandDefinitionRow) TableName() string {
	return "command_definitions"
}

func toRow(def *domain.CommandDefinition) commandDefinitionRow {
	return commandDefinitionRow{
		ID:                   def.ID,
		Intent:               def.Intent,
		Category:             def.Category,
		Description:          def.Description,
		Complexity:           string(def.Complexity),
		RequiresBusinessData: def.RequiresBusinessData,
		FallbackReason:       string(def.FallbackReason),
		ResponseTemplate:     def.ResponseTemplate,
		Triggers:             def.Triggers,
		Action:               def.Action,
		RequiredEntities:     def.RequiredEntities,
		Examples:             def.Examples,
	}
}

func (r commandDefinitionRow) toDomain() domain.CommandDefinition {
	return domain.CommandDefinition{
		ID:                   r.ID,
		Triggers:             r.Triggers,
		Intent:               r.Intent,
		Category:             r.Category,
		Description:          r.Description,
		Complexity:           domain.Complexity(r.Complexity),
		RequiresBusinessData: r.RequiresBusinessData,
		FallbackReason:       domain.FallbackReason(r.FallbackReason),
		ResponseTemplate:     r.ResponseTemplate,
		Action:               r.Action,
		RequiredEntities:     r.RequiredEntities,
		Examples:             r.Examples,
	}
}

// CommandRepository stores registry definitions in command_definitions.
type CommandRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCommandRepository(db *gorm.DB, log *zap.Logger) ports.CommandRepository {
	return &CommandRepository{
		db:  db,
		log: log,
	}
}

func (r *CommandRepository) List(ctx context.Context) ([]domain.CommandDefinition, error) {
	var rows []commandDefinitionRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list command definitions: %w", err)
	}
	defs := make([]domain.CommandDefinition, 0, len(rows))
	for _, row := range rows {
		defs = append(defs, row.toDomain())
	}
	return defs, nil
}

func (r *CommandRepository) FindByID(ctx context.Context, id string) (*domain.CommandDefinition, error) {
	var row commandDefinitionRow
	result := r.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("command definition %s: %w", id, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("find command definition %s: %w", id, result.Error)
	}
	def := row.toDomain()
	return &def, nil
}

// Save inserts or replaces a definition.
func (r *CommandRepository) Save(ctx context.Context, def *domain.CommandDefinition) error {
	row := toRow(def)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		r.log.Error("Failed to save command definition", zap.String("id", def.ID), zap.Error(err))
		return fmt.Errorf("save command definition %s: %w", def.ID, err)
	}
	return nil
}

func (r *CommandRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&commandDefinitionRow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete command definition %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("command definition %s: %w", id, ports.ErrNotFound)
	}
	return nil
}
