package cache

import "fmt"

const (
	revokedTokenPrefix = "auth:revoked:%s"
	rateLimitPrefix    = "rl:%s:%s"
	realtimeTable      = "realtime:%s"
	realtimeFiltered   = "realtime:%s:%s=%s"
)

// RevokedTokenKey marks a signed-out token by its jti.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(revokedTokenPrefix, jti)
}

// RateLimitKey counts requests for one caller against one resource.
func RateLimitKey(resource, id string) string {
	return fmt.Sprintf(rateLimitPrefix, resource, id)
}

// RealtimeChannel carries every change on table.
func RealtimeChannel(table string) string {
	return fmt.Sprintf(realtimeTable, table)
}

// RealtimeFilteredChannel carries changes on table whose column equals value.
func RealtimeFilteredChannel(table, column, value string) string {
	return fmt.Sprintf(realtimeFiltered, table, column, value)
}
