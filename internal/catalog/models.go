package catalog

import (
	"time"

	"github.com/marshallshelly/pebble-catalog/pkg/schema"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64      `po:"id,primaryKey,identity,integer" json:"id"`
	Name      string     `po:"name,varchar(100),notNull" json:"name" validate:"required,max=100"`
	Email     string     `po:"email,varchar(150),notNull,unique" json:"email" validate:"required,email,max=150"`
	Password  string     `po:"password,varchar(255),notNull" json:"-" validate:"required,max=255"`
	Age       *int       `po:"age,integer" json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Phone     *string    `po:"phone,varchar(20)" json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   *string    `po:"address,text" json:"address,omitempty"`
	Country   *string    `po:"country,varchar(50)" json:"country,omitempty" validate:"omitempty,max=50"`
	Status    UserStatus `po:"status,enum(user_status),default('active')" json:"status" validate:"omitempty,oneof=active inactive"`
	Role      UserRole   `po:"role,enum(user_role),default('subscriber')" json:"role" validate:"omitempty,oneof=admin editor subscriber member"`
	IsDeleted bool       `po:"is_deleted,boolean,default(false)" json:"is_deleted"`
	DeletedAt *time.Time `po:"deleted_at,timestamp" json:"deleted_at,omitempty"`
	LastLogin *time.Time `po:"last_login,timestamp" json:"last_login,omitempty"`
	CreatedAt time.Time  `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
	UpdatedAt time.Time  `po:"updated_at,timestamp,default(CURRENT_TIMESTAMP),autoUpdate" json:"updated_at"`
}

func (User) TableName() string { return "users" }

type Category struct {
	ID          int64     `po:"id,primaryKey,identity,integer" json:"id"`
	Name        string    `po:"name,varchar(100),notNull" json:"name" validate:"required,max=100"`
	Description *string   `po:"description,text" json:"description,omitempty"`
	ParentID    *int64    `po:"parent_id,integer,fk(categories.id),onDelete(SET NULL)" json:"parent_id,omitempty"`
	CreatedAt   time.Time `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
}

func (Category) TableName() string { return "categories" }

func (Category) TableConstraints() []schema.ConstraintMetadata {
	return []schema.ConstraintMetadata{
		{Name: "categories_parent_check", Type: schema.CheckConstraint, Columns: []string{"id", "parent_id"}, Expression: "parent_id <> id"},
	}
}

type Brand struct {
	ID          int64     `po:"id,primaryKey,identity,integer" json:"id"`
	Name        string    `po:"name,varchar(100),notNull,unique" json:"name" validate:"required,max=100"`
	Description *string   `po:"description,text" json:"description,omitempty"`
	Website     *string   `po:"website,varchar(255)" json:"website,omitempty" validate:"omitempty,url,max=255"`
	CreatedAt   time.Time `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
}

func (Brand) TableName() string { return "brands" }

type Product struct {
	ID          int64           `po:"id,primaryKey,identity,integer" json:"id"`
	Name        string          `po:"name,varchar(200),notNull" json:"name" validate:"required,max=200"`
	Description *string         `po:"description,text" json:"description,omitempty"`
	Price       decimal.Decimal `po:"price,numeric(10,2),notNull,index(idx_products_price)" json:"price" validate:"gte=0"`
	Stock       int             `po:"stock,integer,default(0)" json:"stock" validate:"gte=0"`
	CategoryID  *int64          `po:"category_id,integer,fk(categories.id),onDelete(SET NULL),index(idx_products_category)" json:"category_id,omitempty"`
	BrandID     *int64          `po:"brand_id,integer,fk(brands.id),onDelete(SET NULL)" json:"brand_id,omitempty"`
	SKU         string          `po:"sku,varchar(50),notNull,unique" json:"sku" validate:"required,max=50"`
	Status      ProductStatus   `po:"status,enum(product_status),default('active'),index(idx_products_status)" json:"status" validate:"omitempty,oneof=active inactive discontinued"`
	Featured    bool            `po:"featured,boolean,default(false)" json:"featured"`
	CreatedAt   time.Time       `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
	UpdatedAt   time.Time       `po:"updated_at,timestamp,default(CURRENT_TIMESTAMP),autoUpdate" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

func (Product) TableConstraints() []schema.ConstraintMetadata {
	return []schema.ConstraintMetadata{
		{Name: "products_price_check", Type: schema.CheckConstraint, Columns: []string{"price"}, Expression: "price >= 0"},
		{Name: "products_stock_check", Type: schema.CheckConstraint, Columns: []string{"stock"}, Expression: "stock >= 0"},
	}
}

type Order struct {
	ID             int64           `po:"id,primaryKey,identity,integer" json:"id"`
	CustomerID     int64           `po:"customer_id,integer,notNull,fk(users.id),onDelete(CASCADE),index(idx_orders_customer)" json:"customer_id" validate:"required"`
	OrderDate      time.Time       `po:"order_date,timestamp,default(CURRENT_TIMESTAMP),index(idx_orders_date)" json:"order_date"`
	TotalAmount    decimal.Decimal `po:"total_amount,numeric(10,2),notNull" json:"total_amount" validate:"gte=0"`
	PaymentMethod  *string         `po:"payment_method,varchar(50)" json:"payment_method,omitempty" validate:"omitempty,max=50"`
	PaymentStatus  PaymentStatus   `po:"payment_status,enum(payment_status),default('pending')" json:"payment_status" validate:"omitempty,oneof=pending paid failed refunded"`
	OrderStatus    OrderStatus     `po:"order_status,enum(order_status),default('pending')" json:"order_status" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	ShippingAmount decimal.Decimal `po:"shipping_amount,numeric(10,2),default(0)" json:"shipping_amount" validate:"gte=0"`
	DiscountAmount decimal.Decimal `po:"discount_amount,numeric(10,2),default(0)" json:"discount_amount" validate:"gte=0"`
	CreatedAt      time.Time       `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
	UpdatedAt      time.Time       `po:"updated_at,timestamp,default(CURRENT_TIMESTAMP),autoUpdate" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID         int64           `po:"id,primaryKey,identity,integer" json:"id"`
	OrderID    int64           `po:"order_id,integer,notNull,fk(orders.id),onDelete(CASCADE)" json:"order_id" validate:"required"`
	ProductID  int64           `po:"product_id,integer,notNull,fk(products.id),onDelete(CASCADE)" json:"product_id" validate:"required"`
	Quantity   int             `po:"quantity,integer,notNull" json:"quantity" validate:"gt=0"`
	UnitPrice  decimal.Decimal `po:"unit_price,numeric(10,2),notNull" json:"unit_price" validate:"gte=0"`
	TotalPrice decimal.Decimal `po:"total_price,numeric(10,2),notNull" json:"total_price" validate:"gte=0"`
	CreatedAt  time.Time       `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }

func (OrderItem) TableConstraints() []schema.ConstraintMetadata {
	return []schema.ConstraintMetadata{
		{Name: "order_items_quantity_check", Type: schema.CheckConstraint, Columns: []string{"quantity"}, Expression: "quantity > 0"},
		{Name: "order_items_total_price_check", Type: schema.CheckConstraint, Columns: []string{"total_price", "quantity", "unit_price"}, Expression: "total_price = quantity * unit_price"},
	}
}

type Author struct {
	ID        int64     `po:"id,primaryKey,identity,integer" json:"id"`
	Name      string    `po:"name,varchar(100),notNull" json:"name" validate:"required,max=100"`
	Country   *string   `po:"country,varchar(50)" json:"country,omitempty"`
	BirthYear *int      `po:"birth_year,integer" json:"birth_year,omitempty"`
	CreatedAt time.Time `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
}

func (Author) TableName() string { return "authors" }

type Book struct {
	ID            int64               `po:"id,primaryKey,identity,integer" json:"id"`
	Title         string              `po:"title,varchar(200),notNull" json:"title" validate:"required,max=200"`
	AuthorID      *int64              `po:"author_id,integer,fk(authors.id),onDelete(SET NULL)" json:"author_id,omitempty"`
	Genre         *string             `po:"genre,varchar(50)" json:"genre,omitempty"`
	PublishedYear *int                `po:"published_year,integer" json:"published_year,omitempty"`
	Price         decimal.NullDecimal `po:"price,numeric(8,2)" json:"price" validate:"omitempty,gte=0"`
	CreatedAt     time.Time           `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
}

func (Book) TableName() string { return "books" }

// Customer is a standalone sample table; orders reference users.
type Customer struct {
	ID              int64           `po:"id,primaryKey,identity,integer" json:"id"`
	Name            string          `po:"name,varchar(100),notNull" json:"name" validate:"required,max=100"`
	Email           string          `po:"email,varchar(150),notNull,unique" json:"email" validate:"required,email,max=150"`
	City            *string         `po:"city,varchar(50)" json:"city,omitempty"`
	MembershipLevel MembershipLevel `po:"membership_level,enum(membership_level),default('basic')" json:"membership_level" validate:"omitempty,oneof=basic premium vip"`
	CreatedAt       time.Time       `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

// FeaturedProduct is a promotion window; both dates are inclusive.
type FeaturedProduct struct {
	ID        int64     `po:"id,primaryKey,identity,integer" json:"id"`
	ProductID int64     `po:"product_id,integer,notNull,fk(products.id),onDelete(CASCADE)" json:"product_id" validate:"required"`
	StartDate time.Time `po:"start_date,date,notNull" json:"start_date" validate:"required"`
	EndDate   time.Time `po:"end_date,date,notNull" json:"end_date" validate:"required,gtefield=StartDate"`
	CreatedAt time.Time `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
}

func (FeaturedProduct) TableName() string { return "featured_products" }

func (FeaturedProduct) TableConstraints() []schema.ConstraintMetadata {
	return []schema.ConstraintMetadata{
		{Name: "featured_products_window_check", Type: schema.CheckConstraint, Columns: []string{"start_date", "end_date"}, Expression: "end_date >= start_date"},
	}
}

// UserPreference holds a free-form preferences document. A user may have
// several rows; the newest one wins.
type UserPreference struct {
	ID          int64        `po:"id,primaryKey,identity,integer" json:"id"`
	UserID      int64        `po:"user_id,integer,notNull,fk(users.id),onDelete(CASCADE)" json:"user_id" validate:"required"`
	Preferences schema.JSONB `po:"preferences,jsonb" json:"preferences"`
	CreatedAt   time.Time    `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)" json:"created_at"`
	UpdatedAt   time.Time    `po:"updated_at,timestamp,default(CURRENT_TIMESTAMP),autoUpdate" json:"updated_at"`
}

func (UserPreference) TableName() string { return "user_preferences" }

// Session is a row of the custom session store. It is not tied to users.
type Session struct {
	ID         string    `po:"id,varchar(128),primaryKey" json:"id" validate:"required,max=128"`
	Data       *string   `po:"data,text" json:"data,omitempty"`
	LastAccess time.Time `po:"last_access,timestamp,default(CURRENT_TIMESTAMP)" json:"last_access"`
}

func (Session) TableName() string { return "sessions" }
