package docs

// @title 口味匹配打分服务 API
// @version 1.0
// @description 基于关键词画像的用户-餐厅、用户-用户口味匹配打分服务，分数按实体状态版本缓存
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
