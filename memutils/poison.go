package memutils

// PoisonByte is written across released payloads when memory debugging is active.
const PoisonByte byte = 0xDD
