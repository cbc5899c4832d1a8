/*
Package metrics provides the built-in measurement functions of the harness and
a name-addressed registry for resolving them from configuration.

Single metrics reduce one emitted quantity (a vector or scalar) to a result;
pair metrics compare two quantities, typically the benign and adversarial
versions of the same value. Both shapes plug directly into instrument meters.
*/
package metrics
