// Package critexp solves the similarity-dimension equation
// r1^d + r2^d + ... + rn^d = 1 for the exponent d.
package critexp
