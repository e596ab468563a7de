package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/econsim-go/internal/domain/ledger"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

// transactionModel is the gorm row for one ledger.Transaction. Metadata is
// stored as a JSON blob since it is an open map.
type transactionModel struct {
	ID                string `gorm:"primaryKey"`
	AgentID           string `gorm:"index"`
	Timestamp         time.Time
	TransactionType   string
	Category          string
	Amount            int
	BalanceBefore     int
	BalanceAfter      int
	Description       string
	Metadata          string
	RelatedEntityType string
	RelatedEntityID   string
	OperationType     string
}

func (transactionModel) TableName() string { return "ledger_transactions" }

// AutoMigrateLedger creates the ledger_transactions table.
func AutoMigrateLedger(db *gorm.DB) error {
	return db.AutoMigrate(&transactionModel{})
}

// TransactionRepository is a gorm-backed ledger.TransactionRepository.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func toModel(t *ledger.Transaction) (transactionModel, error) {
	metaJSON := "{}"
	if m := t.Metadata(); m != nil {
		b, err := json.Marshal(m)
		if err != nil {
			return transactionModel{}, err
		}
		metaJSON = string(b)
	}
	return transactionModel{
		ID:                t.ID().Value(),
		AgentID:           t.AgentID().Value(),
		Timestamp:         t.Timestamp(),
		TransactionType:   t.TransactionType().String(),
		Category:          t.Category().String(),
		Amount:            t.Amount(),
		BalanceBefore:     t.BalanceBefore(),
		BalanceAfter:      t.BalanceAfter(),
		Description:       t.Description(),
		Metadata:          metaJSON,
		RelatedEntityType: t.RelatedEntityType(),
		RelatedEntityID:   t.RelatedEntityID(),
		OperationType:     t.OperationType(),
	}, nil
}

func fromModel(m transactionModel) (*ledger.Transaction, error) {
	id, err := ledger.NewTransactionIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	agentID, err := shared.NewAgentID(m.AgentID)
	if err != nil {
		return nil, err
	}
	txType, err := ledger.ParseTransactionType(m.TransactionType)
	if err != nil {
		return nil, err
	}
	category, err := ledger.ParseCategory(m.Category)
	if err != nil {
		return nil, err
	}
	var meta map[string]interface{}
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &meta); err != nil {
			return nil, err
		}
	}
	return ledger.ReconstructTransaction(
		id, agentID, m.Timestamp, txType, category,
		m.Amount, m.BalanceBefore, m.BalanceAfter,
		m.Description, meta, m.RelatedEntityType, m.RelatedEntityID, m.OperationType,
	), nil
}

// Create persists a new transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *ledger.Transaction) error {
	model, err := toModel(t)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID retrieves a transaction by its ID, scoped to an agent.
func (r *TransactionRepository) FindByID(ctx context.Context, id ledger.TransactionID, agentID shared.AgentID) (*ledger.Transaction, error) {
	var model transactionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND agent_id = ?", id.Value(), agentID.Value()).
		First(&model).Error
	if err != nil {
		return nil, fmt.Errorf("transaction lookup: %w", err)
	}
	return fromModel(model)
}

// FindByAgent retrieves transactions for an agent with optional filtering.
func (r *TransactionRepository) FindByAgent(ctx context.Context, agentID shared.AgentID, opts ledger.QueryOptions) ([]*ledger.Transaction, error) {
	q := r.db.WithContext(ctx).Where("agent_id = ?", agentID.Value())
	q = applyQueryOptions(q, opts)

	var models []transactionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.Transaction, 0, len(models))
	for _, m := range models {
		t, err := fromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// CountByAgent returns the count of transactions matching the criteria.
func (r *TransactionRepository) CountByAgent(ctx context.Context, agentID shared.AgentID, opts ledger.QueryOptions) (int, error) {
	q := r.db.WithContext(ctx).Model(&transactionModel{}).Where("agent_id = ?", agentID.Value())
	q = applyQueryOptions(q, opts)
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func applyQueryOptions(q *gorm.DB, opts ledger.QueryOptions) *gorm.DB {
	if opts.StartDate != nil {
		q = q.Where("timestamp >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		q = q.Where("timestamp <= ?", *opts.EndDate)
	}
	if opts.Category != nil {
		q = q.Where("category = ?", opts.Category.String())
	}
	if opts.TransactionType != nil {
		q = q.Where("transaction_type = ?", opts.TransactionType.String())
	}
	if opts.RelatedEntityType != nil {
		q = q.Where("related_entity_type = ?", *opts.RelatedEntityType)
	}
	if opts.RelatedEntityID != nil {
		q = q.Where("related_entity_id = ?", *opts.RelatedEntityID)
	}
	if opts.OrderBy != "" {
		q = q.Order(opts.OrderBy)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	return q
}

var _ ledger.TransactionRepository = (*TransactionRepository)(nil)
