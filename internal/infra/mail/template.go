package mail

import (
	"bytes"
	"html/template"

	"github.com/pkg/errors"
)

type resetCodeView struct {
	Name    string
	Code    string
	Minutes int
	Year    int
}

var resetCodeTmpl = template.Must(template.New("reset_code").Parse(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #000; color: #fff; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
    .content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
    .code { background-color: #000; color: #fff; padding: 15px; font-size: 32px; font-weight: bold; text-align: center; letter-spacing: 5px; margin: 20px 0; border-radius: 5px; }
    .footer { margin-top: 20px; text-align: center; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>ORTUS BRAND</h1></div>
    <div class="content">
      <h2>Здравствуйте, {{.Name}}!</h2>
      <p>Вы запросили восстановление пароля для вашего аккаунта.</p>
      <p>Используйте следующий код для восстановления пароля:</p>
      <div class="code">{{.Code}}</div>
      <p>Код действителен в течение {{.Minutes}} минут.</p>
      <p>Если вы не запрашивали восстановление пароля, просто проигнорируйте это письмо.</p>
    </div>
    <div class="footer"><p>&copy; {{.Year}} ORTUS Brand. Все права защищены.</p></div>
  </div>
</body>
</html>
`))

func renderResetCode(v resetCodeView) (string, error) {
	var buf bytes.Buffer
	if err := resetCodeTmpl.Execute(&buf, v); err != nil {
		return "", errors.Wrap(err, "render reset code mail")
	}
	return buf.String(), nil
}
