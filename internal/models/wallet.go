package models

// UserStatus is the persisted registration state of a Telegram user.
type UserStatus string

const (
	// StatusUnregistered is reported for users without a userstatus row.
	StatusUnregistered UserStatus = ""
	// StatusNewUser is written while /start is creating the wallet.
	StatusNewUser UserStatus = "NEW_USER"
	// StatusWalletCreated is the steady state of every registered user.
	StatusWalletCreated UserStatus = "USER_WITH_WALLET"
)

// UserStatusRow is a row of the userstatus table.
type UserStatusRow struct {
	// TelegramID is the Telegram user id.
	TelegramID int64 `json:"telegramid" gorm:"column:telegramid;primaryKey;autoIncrement:false"`
	// Status is the registration state.
	Status UserStatus `json:"status" gorm:"column:status;not null"`
}

// TableName specifies the table name for GORM
func (UserStatusRow) TableName() string {
	return "userstatus"
}

// Wallet represents the custodial wallet of one Telegram user.
type Wallet struct {
	// TelegramID is the owner of the wallet.
	TelegramID int64 `json:"telegramid" gorm:"column:telegramid;primaryKey;autoIncrement:false"`
	// Username is the Telegram username at creation time.
	Username string `json:"username" gorm:"column:username"`
	// Seed is the encrypted seed blob. Only the holder of the current key can open it.
	Seed string `json:"-" gorm:"column:seed;not null"`
	// NextIndex is the next unused derivation index.
	NextIndex uint64 `json:"next_index" gorm:"column:next_index;not null;default:0"`
	// KeyNum counts the keys issued so far; the user holds #KEY_<KeyNum>.
	KeyNum int `json:"keynum" gorm:"column:keynum;not null"`
	// HashedKey is sha256(key+salt) of the current key.
	HashedKey string `json:"-" gorm:"column:hashedkey;not null"`
	// SaltKey is the salt used in HashedKey.
	SaltKey string `json:"-" gorm:"column:saltkey;not null"`
}

// TableName specifies the table name for GORM
func (Wallet) TableName() string {
	return "wallets"
}
