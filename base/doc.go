/*

Package base provides base functions for tabular.

The base functions include:

* Random Generator

*/
package base
