// Package common provides shared constants, types, utilities, and interfaces
// used throughout the VPN Toggle application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide constants like retry delays, file names, and output limits
//   - Errors: Sentinel errors for the supervisor's failure taxonomy
//   - Interfaces: Abstractions for credential storage, notifications, and logging
//   - Logger: Leveled logging to the console and a rotated log file
//   - Utils: Directory helpers and small string utilities
//
// # Usage
//
//	// Use constants
//	delay := common.RetryDelay
//
//	// Use logger
//	common.LogInfo("Starting OpenVPN with %s", configPath)
//
//	// Check errors
//	if errors.Is(err, common.ErrNotInstalled) {
//	    // Tell the user to install OpenVPN
//	}
package common
