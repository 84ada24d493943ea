package dynamo

// DynamoDB attribute and index names shared across repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID         = "user_id"
	fieldUserCardID     = "user_card_id"
	fieldCardKey        = "card_key"
	fieldNotificationID = "notification_id"
	fieldProductTypeKey = "product_type_key"
	fieldRead           = "read"
	fieldReadAt         = "read_at"

	indexCardKey        = "card_key-index"
	indexProductTypeKey = "product_type_key-notification_id-index"
)
