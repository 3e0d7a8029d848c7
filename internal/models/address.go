package models

// DefaultSecurity is the security level used for every derived address.
const DefaultSecurity = 2

// Address is one derived address of a wallet.
type Address struct {
	// Address is the checksum-stripped 81 tryte address.
	Address string `json:"address" gorm:"column:address;primaryKey"`
	// TelegramSenderID is the owner of the address.
	TelegramSenderID int64 `json:"telegram_sender_id" gorm:"column:telegram_sender_id;index;not null"`
	// Index is the derivation index of the address.
	Index uint64 `json:"index" gorm:"column:index;not null"`
	// Balance is the last known balance.
	Balance int64 `json:"balance" gorm:"column:balance;not null;default:0"`
	// Security is the security level the address was derived with.
	Security int `json:"security" gorm:"column:security;not null"`
	// UsedAsInput is set once the address was spent from. It is never cleared.
	UsedAsInput bool `json:"used_as_input" gorm:"column:used_as_input;not null;default:false"`
}

// TableName specifies the table name for GORM
func (Address) TableName() string {
	return "addresses"
}

// TxHistory is a broadcast transfer.
type TxHistory struct {
	// TxHash is the hash of the tail transaction.
	TxHash string `json:"tx_hash" gorm:"column:tx_hash;primaryKey"`
	// TelegramSenderID is the user who sent the transfer.
	TelegramSenderID int64 `json:"telegram_sender_id" gorm:"column:telegram_sender_id;index;not null"`
	// Bundle is the bundle hash.
	Bundle string `json:"tx_bundle" gorm:"column:tx_bundle;not null"`
	// Persistence is the confirmation flag, updated out of band.
	Persistence bool `json:"tx_persistence" gorm:"column:tx_persistence;not null;default:false"`
	// Reattached counts reattachments.
	Reattached int `json:"reattached" gorm:"column:reattached;not null;default:0"`
	// AttachTimestamp is the attachment timestamp reported by the node.
	AttachTimestamp int64 `json:"tx_attach_timestamp" gorm:"column:tx_attach_timestamp"`
}

// TableName specifies the table name for GORM
func (TxHistory) TableName() string {
	return "tx_history"
}
