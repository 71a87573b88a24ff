package config

import "github.com/spf13/viper"

// Auth auth config struct
type Auth struct {
	JWT *JWT `json:"jwt" validate:"required"`
}

// getAuth returns the auth config.
func getAuth(v *viper.Viper) *Auth {
	return &Auth{
		JWT: getJWT(v),
	}
}

// JWT guards the admin endpoints. An empty secret disables them.
type JWT struct {
	Secret    string `json:"secret"`
	AdminRole string `json:"admin_role"`
}

// getJWT returns the jwt config.
func getJWT(v *viper.Viper) *JWT {
	secret := v.GetString("auth.jwt.secret")
	if secret == "" {
		secret = v.GetString("auth.jwt_secret")
	}
	return &JWT{
		Secret:    secret,
		AdminRole: getStringOrDefault(v, "auth.admin_role", "admin"),
	}
}
