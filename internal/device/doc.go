// Package device implements channels to a target device.
//
// A Channel offers the four operations deployment needs: reading a system
// property, removing a file (optionally through a root shell), pushing a
// file and changing its mode. ADB drives a real device through the adb
// command line; Dir treats a local directory as the device filesystem and
// is used for emulator images, staging trees and tests.
package device
