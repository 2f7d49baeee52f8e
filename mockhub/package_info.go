// Package mockhub provides an in-process stand-in for the DHT hub, used to exercise the
// harness end to end without real devices.
package mockhub
