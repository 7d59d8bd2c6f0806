package repository

const (
	keyPrefixPool = "pool:"
)

func PoolKey(poolID string) string {
	return keyPrefixPool + poolID
}

func DepositKey(poolID, owner string) string {
	return keyPrefixPool + poolID + ":deposit:" + owner
}

// DepositorsKey is a list of owners in first-deposit order.
func DepositorsKey(poolID string) string {
	return keyPrefixPool + poolID + ":depositors"
}

func DrawsKey(poolID string) string {
	return keyPrefixPool + poolID + ":draws"
}

func ClaimsKey(poolID string) string {
	return keyPrefixPool + poolID + ":claims"
}

func LockKey(poolID string) string {
	return keyPrefixPool + poolID + ":lock"
}
