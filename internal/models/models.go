package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// money and quantities are serialized as plain JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type QuantityType string

const (
	QuantityUnit    QuantityType = "UNIT"
	QuantityWeight  QuantityType = "WEIGHT"
	QuantityVolume  QuantityType = "VOLUME"
	QuantityServing QuantityType = "SERVING"
)

type CustomizationType string

const (
	CustomizationNone   CustomizationType = "NONE"
	CustomizationSimple CustomizationType = "SIMPLE"
	CustomizationDAG    CustomizationType = "COMPLEX_DAG"
)

type SimpleCustomizationType string

const (
	SimpleSize     SimpleCustomizationType = "SIZE"
	SimpleAddon    SimpleCustomizationType = "ADDON"
	SimpleModifier SimpleCustomizationType = "MODIFIER"
	SimpleOption   SimpleCustomizationType = "OPTION"
)

type NodeType string

const (
	NodeGroup    NodeType = "GROUP"
	NodeOption   NodeType = "OPTION"
	NodeModifier NodeType = "MODIFIER"
)

type TaxType string

const (
	TaxPercentage TaxType = "PERCENTAGE"
	TaxFixed      TaxType = "FIXED"
)

type OrderStatus string

const (
	StatusReceived  OrderStatus = "RECEIVED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

type Category struct {
	ID               uuid.UUID  `gorm:"primaryKey"            json:"id"`
	Name             string     `gorm:"not null"              json:"name"`
	Slug             string     `gorm:"uniqueIndex;not null"  json:"slug"`
	Description      string     `json:"description,omitempty"`
	ImageURL         string     `json:"imageUrl,omitempty"`
	ParentCategoryID *uuid.UUID `gorm:"index"                 json:"parentCategoryId,omitempty"`
	DisplayOrder     int        `gorm:"default:0"             json:"displayOrder"`
	IsActive         bool       `gorm:"default:true"          json:"isActive"`

	// ItemCount is derived on read, never stored.
	ItemCount int64 `gorm:"-" json:"itemCount"`

	ChildCategories []Category `gorm:"foreignKey:ParentCategoryID" json:"childCategories,omitempty"`
	MenuItems       []MenuItem `gorm:"foreignKey:CategoryID"       json:"-"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Category) TableName() string { return "categories" }

type MenuItem struct {
	ID                uuid.UUID         `gorm:"primaryKey"            json:"id"`
	CategoryID        uuid.UUID         `gorm:"index;not null"        json:"categoryId"`
	Name              string            `gorm:"not null"              json:"name"`
	Slug              string            `gorm:"uniqueIndex;not null"  json:"slug"`
	Description       string            `json:"description,omitempty"`
	ImageURL          string            `json:"imageUrl,omitempty"`
	BasePrice         decimal.Decimal   `gorm:"type:numeric(10,2);not null"           json:"basePrice"`
	QuantityType      QuantityType      `gorm:"not null;default:UNIT"                 json:"quantityType"`
	Unit              string            `json:"unit,omitempty"`
	MinQuantity       decimal.Decimal   `gorm:"type:numeric(10,3);not null;default:1" json:"minQuantity"`
	MaxQuantity       *decimal.Decimal  `gorm:"type:numeric(10,3)"                    json:"maxQuantity,omitempty"`
	StepQuantity      decimal.Decimal   `gorm:"type:numeric(10,3);not null;default:1" json:"stepQuantity"`
	IsAvailable       bool              `gorm:"default:true"          json:"isAvailable"`
	AvailableQuantity *decimal.Decimal  `gorm:"type:numeric(10,3)"    json:"availableQuantity"`
	PrepTime          int               `gorm:"default:0"             json:"prepTime"`
	CustomizationType CustomizationType `gorm:"not null;default:NONE" json:"customizationType"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`

	Category       Category                `gorm:"foreignKey:CategoryID" json:"category"`
	Taxes          []MenuItemTax           `gorm:"foreignKey:MenuItemID" json:"taxes,omitempty"`
	Customizations []MenuItemCustomization `gorm:"foreignKey:MenuItemID" json:"customizations,omitempty"`
	Nodes          []CustomizationNode     `gorm:"foreignKey:MenuItemID" json:"nodes,omitempty"`
	Edges          []CustomizationEdge     `gorm:"foreignKey:MenuItemID" json:"edges,omitempty"`
}

func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (MenuItem) TableName() string { return "menu_items" }

type Tax struct {
	ID           uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	Name         string          `gorm:"not null"                    json:"name"`
	Type         TaxType         `gorm:"not null"                    json:"type"`
	Value        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"value"`
	IsInclusive  bool            `gorm:"default:false"               json:"isInclusive"`
	DisplayOrder int             `gorm:"default:0"                   json:"displayOrder"`
}

func (t *Tax) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (Tax) TableName() string { return "taxes" }

// MenuItemTax joins an item to a tax. ApplyOrder controls presentation
// order only; tax amounts are order-independent.
type MenuItemTax struct {
	ID         uuid.UUID `gorm:"primaryKey"                        json:"id"`
	MenuItemID uuid.UUID `gorm:"uniqueIndex:idx_item_tax;not null" json:"menuItemId"`
	TaxID      uuid.UUID `gorm:"uniqueIndex:idx_item_tax;not null" json:"taxId"`
	ApplyOrder int       `gorm:"default:0"                         json:"applyOrder"`

	Tax Tax `gorm:"foreignKey:TaxID" json:"tax"`
}

func (mt *MenuItemTax) BeforeCreate(tx *gorm.DB) error {
	if mt.ID == uuid.Nil {
		mt.ID = uuid.New()
	}
	return nil
}

func (MenuItemTax) TableName() string { return "menu_item_taxes" }

type Customization struct {
	ID       uuid.UUID               `gorm:"primaryKey"                  json:"id"`
	Name     string                  `gorm:"not null"                    json:"name"`
	Type     SimpleCustomizationType `gorm:"not null"                    json:"type"`
	Price    decimal.Decimal         `gorm:"type:numeric(10,2);not null" json:"price"`
	IsActive bool                    `gorm:"default:true"                json:"isActive"`
}

func (c *Customization) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Customization) TableName() string { return "customizations" }

// MenuItemCustomization is a slot: it attaches an option to an item with
// the slot-level selection rule.
type MenuItemCustomization struct {
	ID              uuid.UUID `gorm:"primaryKey"                           json:"id"`
	MenuItemID      uuid.UUID `gorm:"uniqueIndex:idx_item_custom;not null" json:"menuItemId"`
	CustomizationID uuid.UUID `gorm:"uniqueIndex:idx_item_custom;not null" json:"customizationId"`
	IsRequired      bool      `gorm:"default:false"                        json:"isRequired"`
	MinSelections   int       `gorm:"default:0"                            json:"minSelections"`
	MaxSelections   int       `gorm:"default:1"                            json:"maxSelections"`
	DisplayOrder    int       `gorm:"default:0"                            json:"displayOrder"`

	Customization Customization `gorm:"foreignKey:CustomizationID" json:"customization"`
}

func (mc *MenuItemCustomization) BeforeCreate(tx *gorm.DB) error {
	if mc.ID == uuid.Nil {
		mc.ID = uuid.New()
	}
	return nil
}

func (MenuItemCustomization) TableName() string { return "menu_item_customizations" }

// CustomizationNode belongs to exactly one menu item. The node/edge set is
// authored at catalog time and immutable at order time.
type CustomizationNode struct {
	ID           uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	MenuItemID   uuid.UUID       `gorm:"index;not null"              json:"menuItemId"`
	Type         NodeType        `gorm:"not null"                    json:"type"`
	Name         string          `gorm:"not null"                    json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	DisplayOrder int             `gorm:"default:0"                   json:"displayOrder"`
	IsActive     bool            `gorm:"default:true"                json:"isActive"`
}

func (n *CustomizationNode) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (CustomizationNode) TableName() string { return "customization_nodes" }

// CustomizationEdge links a parent group to a selectable child. Constraint
// columns are nullable: a nil min/max means the edge carries no selection
// rule of its own (in practice one edge per group carries the rule).
type CustomizationEdge struct {
	ID            uuid.UUID `gorm:"primaryKey"                            json:"id"`
	MenuItemID    uuid.UUID `gorm:"index;not null"                        json:"menuItemId"`
	ParentNodeID  uuid.UUID `gorm:"uniqueIndex:idx_parent_child;not null" json:"parentNodeId"`
	ChildNodeID   uuid.UUID `gorm:"uniqueIndex:idx_parent_child;not null" json:"childNodeId"`
	ConstraintMin *int      `json:"constraintMin,omitempty"`
	ConstraintMax *int      `json:"constraintMax,omitempty"`
	Required      bool      `gorm:"default:false"                         json:"required"`
	DisplayOrder  int       `gorm:"default:0"                             json:"displayOrder"`
}

func (e *CustomizationEdge) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (CustomizationEdge) TableName() string { return "customization_edges" }

type User struct {
	ID        uuid.UUID `gorm:"primaryKey"  json:"id"`
	Phone     string    `gorm:"index"       json:"phone,omitempty"`
	Email     string    `gorm:"index"       json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string { return "users" }

// Order is an immutable snapshot of a priced cart. Only Status and
// StatusHistory change after creation.
type Order struct {
	ID                  uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderNumber         string          `gorm:"uniqueIndex;not null"        json:"orderNumber"`
	SessionID           string          `gorm:"index;not null"              json:"sessionId"`
	UserID              *uuid.UUID      `gorm:"index"                       json:"userId,omitempty"`
	Status              OrderStatus     `gorm:"not null;default:RECEIVED"   json:"status"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	TaxAmount           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"taxAmount"`
	TotalAmount         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"totalAmount"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	EstimatedPrepTime   int             `gorm:"default:15"                  json:"estimatedPrepTime"`
	CreatedAt           time.Time       `gorm:"index"                       json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`

	User          *User                `gorm:"foreignKey:UserID"  json:"user,omitempty"`
	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items"`
	Taxes         []OrderTax           `gorm:"foreignKey:OrderID" json:"taxes"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"statusHistory,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID                  uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID             uuid.UUID       `gorm:"index;not null"              json:"orderId"`
	MenuItemID          uuid.UUID       `gorm:"not null"                    json:"menuItemId"`
	ItemName            string          `gorm:"not null"                    json:"itemName"`
	ItemBasePrice       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"itemBasePrice"`
	Quantity            decimal.Decimal `gorm:"type:numeric(10,3);not null" json:"quantity"`
	QuantityType        QuantityType    `gorm:"not null"                    json:"quantityType"`
	Unit                string          `json:"unit,omitempty"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	CustomizationTotal  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"customizationTotal"`
	ItemSubtotal        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"itemSubtotal"`
	ItemTaxAmount       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"itemTaxAmount"`
	ItemTotal           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"itemTotal"`
	PrepTime            int             `gorm:"default:0"                   json:"prepTime"`

	Customizations []OrderItemCustomization `gorm:"foreignKey:OrderItemID" json:"customizations"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (OrderItem) TableName() string { return "order_items" }

type OrderItemCustomization struct {
	ID          uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderItemID uuid.UUID       `gorm:"index;not null"              json:"orderItemId"`
	Name        string          `gorm:"not null"                    json:"name"`
	Type        string          `gorm:"not null"                    json:"type"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
}

func (c *OrderItemCustomization) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (OrderItemCustomization) TableName() string { return "order_item_customizations" }

// OrderTax is the deduplicated order-level tax breakdown: one row per tax
// identity with the combined amount across all lines referencing it.
type OrderTax struct {
	ID               uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID          uuid.UUID       `gorm:"index;not null"              json:"orderId"`
	TaxID            uuid.UUID       `gorm:"not null"                    json:"taxId"`
	TaxName          string          `gorm:"not null"                    json:"taxName"`
	TaxType          TaxType         `gorm:"not null"                    json:"taxType"`
	TaxValue         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"taxValue"`
	CalculatedAmount decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"calculatedAmount"`
}

func (t *OrderTax) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (OrderTax) TableName() string { return "order_taxes" }

type OrderStatusHistory struct {
	ID        uuid.UUID   `gorm:"primaryKey"     json:"id"`
	OrderID   uuid.UUID   `gorm:"index;not null" json:"orderId"`
	Status    OrderStatus `gorm:"not null"       json:"status"`
	ChangedBy string      `gorm:"not null"       json:"changedBy"`
	Notes     string      `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }

// Payment is one gateway attempt. An order may accumulate FAILED rows
// before its single SUCCESS, so OrderID is a plain index.
type Payment struct {
	ID            uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID       uuid.UUID       `gorm:"index;not null"              json:"orderId"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status        PaymentStatus   `gorm:"not null"                    json:"status"`
	PaymentMethod string          `gorm:"not null"                    json:"paymentMethod"`
	TransactionID string          `gorm:"uniqueIndex;not null"        json:"transactionId"`
	GatewayCode   string          `json:"gatewayCode,omitempty"`
	ErrorCode     string          `json:"errorCode,omitempty"`
	Message       string          `json:"message,omitempty"`
	CardLast4     string          `json:"cardLast4,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Payment) TableName() string { return "payments" }

// All returns every model for migration, dependencies first.
func All() []any {
	return []any{
		&Category{}, &Tax{}, &MenuItem{}, &MenuItemTax{},
		&Customization{}, &MenuItemCustomization{},
		&CustomizationNode{}, &CustomizationEdge{},
		&User{}, &Order{}, &OrderItem{}, &OrderItemCustomization{},
		&OrderTax{}, &OrderStatusHistory{}, &Payment{},
	}
}
