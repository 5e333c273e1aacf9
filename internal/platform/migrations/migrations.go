package migrations

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the inventory schema.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&partRecord{},
		&productRecord{},
		&productPartRecord{},
		&idempotencyRecord{},
	)
}

// Part schema mirrors the inventory Postgres backend.
type partRecord struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false;column:id"`
	Name        string          `gorm:"column:name;size:255;index"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(10,2)"`
	Stock       int             `gorm:"column:stock"`
	Min         int             `gorm:"column:min_stock"`
	Max         int             `gorm:"column:max_stock"`
	Kind        string          `gorm:"column:kind;type:varchar(16)"`
	MachineID   *int64          `gorm:"column:machine_id"`
	CompanyName *string         `gorm:"column:company_name;size:255"`
	CreatedAt   time.Time       `gorm:"column:created_at;index"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (partRecord) TableName() string { return "parts" }

type productRecord struct {
	ID        int64           `gorm:"primaryKey;autoIncrement:false;column:id"`
	Name      string          `gorm:"column:name;size:255;index"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2)"`
	Stock     int             `gorm:"column:stock"`
	Min       int             `gorm:"column:min_stock"`
	Max       int             `gorm:"column:max_stock"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Associations carry no foreign key to parts: deleting a part leaves
// references in place.
type productPartRecord struct {
	ProductID int64 `gorm:"primaryKey;autoIncrement:false;column:product_id"`
	Position  int   `gorm:"primaryKey;autoIncrement:false;column:position"`
	PartID    int64 `gorm:"column:part_id;index"`
}

func (productPartRecord) TableName() string { return "product_parts" }

type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	Kind        string    `gorm:"column:kind;type:varchar(16)"`
	RecordID    int64     `gorm:"column:record_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "inventory_idempotency_keys" }
