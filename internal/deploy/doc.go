// Package deploy installs a variant's binaries on a connected device.
//
// A deployment discovers the device ABIs, removes a previous installation
// (best effort), then walks the device ABI list in order: ABIs outside the
// allow-list are skipped, the primary ABI is installed under the plain
// executable name and every other ABI under "<name>_<abi>". Transfers run one
// at a time and a failed transfer does not stop the remaining ones. The
// Deployer holds no lock; callers serialise deployments to the same device.
package deploy
