package domain

// Identity é a credencial bearer apresentada na requisição.
//
// O valor viaja explicitamente (adapter -> service -> store); nenhum backend o
// recupera de estado global. Token vazio significa chamador anônimo.
type Identity struct {
	Token string
}

func (i Identity) Anonymous() bool { return i.Token == "" }

// Authenticator resolve o token em um subject (dono das linhas no backend relacional).
type Authenticator interface {
	Subject(token string) (string, error)
}
