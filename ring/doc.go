// Package ring implements a fixed-capacity circular buffer that many
// independent readers drain at their own pace. A reader that falls more than
// a full buffer behind is told exactly how many values it missed and handed
// whatever the buffer still holds.
//
// Storage does no locking. One writer may use it at a time and writes must
// not run concurrently with reads or NewReader. Each Reader belongs to a
// single consumer.
package ring
