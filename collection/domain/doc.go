// Package domain define os tipos e contratos do gateway de coleção de cartas.
//
// Este pacote não depende de net/http, de drivers de banco nem do cliente da API
// externa. As camadas application e infra dependem dele; ele não depende de ninguém.
package domain
