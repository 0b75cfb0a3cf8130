// Package vk is the narrow Vulkan surface used by vkrun.
//
// Handles are plain integers and create-info values are Go structs without
// pointers into foreign memory. A Driver implements the function table on
// top of a real loader (see backend/goki) or in memory for tests (see
// internal/vk/fakevk). Every native object created through a Driver must be
// destroyed through the same Driver.
package vk
