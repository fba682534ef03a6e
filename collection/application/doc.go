// Package application contém os casos de uso do gateway: busca de cartas no
// upstream (exata, fuzzy, em lote) e manutenção da coleção (listar, adicionar,
// remover, limpar).
//
// Depende apenas do pacote domain e não conhece net/http.
package application
