package catalog

import "github.com/marshallshelly/pebble-catalog/pkg/schema"

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleEditor     UserRole = "editor"
	RoleSubscriber UserRole = "subscriber"
	RoleMember     UserRole = "member"
)

type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductInactive     ProductStatus = "inactive"
	ProductDiscontinued ProductStatus = "discontinued"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type MembershipLevel string

const (
	MembershipBasic   MembershipLevel = "basic"
	MembershipPremium MembershipLevel = "premium"
	MembershipVIP     MembershipLevel = "vip"
)

func (m MembershipLevel) Valid() bool {
	switch m {
	case MembershipBasic, MembershipPremium, MembershipVIP:
		return true
	}
	return false
}

// EnumTypes returns the PostgreSQL enum types in creation order. The
// literal order matches the oneof lists on the models.
func EnumTypes() []schema.EnumType {
	return []schema.EnumType{
		{Name: "user_status", Values: []string{"active", "inactive"}},
		{Name: "user_role", Values: []string{"admin", "editor", "subscriber", "member"}},
		{Name: "product_status", Values: []string{"active", "inactive", "discontinued"}},
		{Name: "order_status", Values: []string{"pending", "processing", "shipped", "delivered", "cancelled"}},
		{Name: "payment_status", Values: []string{"pending", "paid", "failed", "refunded"}},
		{Name: "membership_level", Values: []string{"basic", "premium", "vip"}},
	}
}
