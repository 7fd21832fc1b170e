package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusReceived  = "Order Received"
	OrderStatusPreparing = "Preparing"
	OrderStatusReady     = "Ready for Pickup"
	OrderStatusCompleted = "Completed"
	OrderStatusCancelled = "Cancelled"
)

const (
	DeliveryModePickup   = "pickup"
	DeliveryModeDelivery = "delivery"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin = "ADMIN"
	UserRoleStaff = "STAFF"
)

// ── Configurable labels (no DB constraint) ──

const (
	CategoryBreakfast = "Breakfast"
	CategoryMeals     = "Meals"
	CategorySnacks    = "Snacks"
	CategoryBeverages = "Beverages"
	CategoryDesserts  = "Desserts"
)

const (
	PaymentMethodCash = "CASH"
	PaymentMethodUPI  = "UPI"
)

// ── Audit actions ──

const (
	AuditActionCreateItem      = "CREATE_ITEM"
	AuditActionUpdateItem      = "UPDATE_ITEM"
	AuditActionDeleteItem      = "DELETE_ITEM"
	AuditActionAdjustStock     = "ADJUST_STOCK"
	AuditActionSetAvailability = "SET_AVAILABILITY"
	AuditActionUpdateStatus    = "UPDATE_STATUS"
	AuditActionCreateUser      = "CREATE_USER"
	AuditActionUpdateUser      = "UPDATE_USER"
	AuditActionDeleteUser      = "DELETE_USER"
)
