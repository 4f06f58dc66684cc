// Package websocket provides real-time order status streaming via WebSocket.
//
// Clients connect to /ws/orders?orderId=<id>. A client that connects while
// the order is still active first receives a snapshot message, then one
// event message per status transition.
package websocket
