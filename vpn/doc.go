// Package vpn supervises a single OpenVPN process and classifies its output.
//
// This package implements the core of VPN Toggle:
//
//   - Supervisor: Starts, stops and reaps the OpenVPN process
//   - Classifier: Maps stdout/stderr chunks to status events
//   - Broadcaster: Fans status events out to every subscriber
//
// # Connection Flow
//
// A typical connection flow:
//
//  1. The display layer calls Supervisor.Connect()
//  2. The supervisor checks the configuration file and publishes Connecting
//  3. OpenVPN is started as "openvpn --config <path>" with both pipes captured
//  4. Output chunks are classified into Authenticating, Connected or Error
//  5. Disconnect (or a second Connect) sends SIGTERM; process exit publishes
//     Disconnected for code 0 and an error for anything else
//
// # Output Classification
//
// Classification is a case-sensitive substring search over each chunk as
// read from the pipe. Chunks are not reassembled into lines.
//
// # Thread Safety
//
// Supervisor and Broadcaster are safe for concurrent use. Callbacks from a
// process that is no longer owned by the supervisor are discarded.
package vpn
