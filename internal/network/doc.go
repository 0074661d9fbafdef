// Package network tracks connectivity and foreground transitions and turns
// them into sync triggers. The embedding platform reports state changes
// through SetOnline and Foreground; everything downstream treats triggers as
// frequent and idempotent.
package network
