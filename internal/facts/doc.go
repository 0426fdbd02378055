// Package facts turns the output of a configuration-management fact
// gathering run into typed [inventory.Facts].
//
// The input is the nested fact mapping produced by the ansible setup module,
// either wrapped as {"ansible_facts": {...}} or bare. Numbers may arrive as
// JSON numbers or strings; anything missing or malformed is reported as a
// [*DecodeError] naming the field, never defaulted.
package facts
