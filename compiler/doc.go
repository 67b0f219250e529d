/*

Process of compilation

Program Text ->
	grammar ->
Parse Tree (grammar.Pair) ->
	front ->
Abstract Syntax Tree (ast) ->
	lower (scope, tp, linkage) ->
SSA Module (llir) ->
	back ->
Textual IR (.ll) or Bitcode (.bc)

SSA Module ->
	vm ->
Program Output

*/
package compiler
