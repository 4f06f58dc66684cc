// Package domain defines the swap order model shared by every layer.
//
// An Order moves through a fixed lifecycle:
//
//	pending -> routing -> building -> confirmed
//	   \          \           \
//	    `----------`-----------`--> failed
//
// Status changes are expressed as Transition values and applied with
// Order.Apply, which rejects any move the lifecycle does not allow.
package domain
